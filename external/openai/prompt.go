package openai

import (
	"github.com/kraftbet/insights-api/internal/domain/prediction"
	"github.com/valyala/bytebufferpool"
)

// The response structure is fixed so the UI layer can split the markdown
// into sections programmatically. Section titles must not drift.
const systemPrompt = "You are a professional football tipster. " +
	"Always answer in a clear, direct and organized way. " +
	"Always keep the same section structure so the system can process the response programmatically."

func buildUserPrompt(req prediction.Request) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("Analyze the match:\n\n")
	_, _ = buf.WriteString("- Country / competition: ")
	_, _ = buf.WriteString(req.LeagueCountry)
	_, _ = buf.WriteString("\n- League: ")
	_, _ = buf.WriteString(req.LeagueName)
	_, _ = buf.WriteString("\n- Match: ")
	_, _ = buf.WriteString(req.TeamHome)
	_, _ = buf.WriteString(" x ")
	_, _ = buf.WriteString(req.TeamAway)
	_, _ = buf.WriteString("\n- Date: ")
	_, _ = buf.WriteString(req.Date)
	_, _ = buf.WriteString("\n\nConsider:\n")
	_, _ = buf.WriteString("- recent form of both teams,\n")
	_, _ = buf.WriteString("- home advantage,\n")
	_, _ = buf.WriteString("- possible absences and squad depth,\n")
	_, _ = buf.WriteString("- recent head-to-head history,\n")
	_, _ = buf.WriteString("- goal trends and playing style.\n\n")
	_, _ = buf.WriteString("Your answer MUST follow EXACTLY this section structure, in this order:\n\n")
	_, _ = buf.WriteString("### Analysis details\n")
	_, _ = buf.WriteString("- A text explaining the context of the match (form, home advantage, absences, history and playing style).\n")
	_, _ = buf.WriteString("- Use paragraphs and lists where it makes sense.\n\n")
	_, _ = buf.WriteString("### Statistical summary (0 to 100)\n")
	_, _ = buf.WriteString("A simple numeric summary, 0 to 100, using EXACTLY the format below:\n\n")
	_, _ = buf.WriteString("- Home team (")
	_, _ = buf.WriteString(req.TeamHome)
	_, _ = buf.WriteString("): Attack: X/100, Defense: Y/100, Recent form: Z/100\n")
	_, _ = buf.WriteString("- Away team (")
	_, _ = buf.WriteString(req.TeamAway)
	_, _ = buf.WriteString("): Attack: X/100, Defense: Y/100, Recent form: Z/100\n\n")
	_, _ = buf.WriteString("Use integers only, no decimals (e.g. 65/100).\n\n")
	_, _ = buf.WriteString("### Predictions\n")
	_, _ = buf.WriteString("EXACTLY 3 numbered predictions (Prediction 1, Prediction 2, Prediction 3).\n")
	_, _ = buf.WriteString("For EACH prediction include ALWAYS the three lines below, in this format:\n\n")
	_, _ = buf.WriteString("- Suggested market: <description of the market>\n")
	_, _ = buf.WriteString("- Estimated hit percentage: NN%\n")
	_, _ = buf.WriteString("- Rationale: <short, objective text>\n\n")
	_, _ = buf.WriteString("Important:\n")
	_, _ = buf.WriteString("- ALWAYS keep the section titles exactly as above.\n")
	_, _ = buf.WriteString("- Return nothing outside this structure.\n")
	_, _ = buf.WriteString("- Use markdown text only (titles, lists, bold where it makes sense).\n")

	return buf.String()
}
