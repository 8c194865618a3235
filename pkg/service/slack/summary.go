package slack

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/slack-go/slack"
)

// maxTextBytes is the limit of a section text object
const maxTextBytes = 3000

// BuildRunSummary renders the result of an aggregation run with its highest
// ranked risks. The second return value is the notification fallback text.
func BuildRunSummary(run *model.Run, top []*model.RiskCalculation) ([]slack.Block, string) {
	text := fmt.Sprintf("Risk aggregation finished: %d risk files, %d cascades", run.RiskFiles, run.Cascades)

	header := slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, "Risk aggregation finished", false, false))

	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Risk files*\n%d", run.RiskFiles), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Cascades*\n%d", run.Cascades), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Cycle breaks*\n%d", run.CycleBreaks), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Diagnostics*\n%d", run.Diagnostics), false, false),
	}
	stats := slack.NewSectionBlock(nil, fields, nil)

	blocks := []slack.Block{header, stats}

	if len(top) > 0 {
		var b strings.Builder
		for i, calc := range top {
			fmt.Fprintf(&b, "%d. *%s* `%s`  r=%.4g  tp=%.3g\n", i+1, escape(calc.Title), calc.RiskID, calc.Risk, calc.TotalProbability.Sum())
		}
		ranking := truncateToMaxBytes(b.String(), maxTextBytes)
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, ranking, false, false), nil, nil,
		))
	}

	footer := fmt.Sprintf("run `%s` in %s", run.ID, run.FinishedAt.Sub(run.StartedAt).Round(1e6))
	if run.ExportURL != "" {
		footer += fmt.Sprintf(" | <%s|export>", run.ExportURL)
	}
	blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject(slack.MarkdownType, footer, false, false)))

	return blocks, text
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

// truncateToMaxBytes cuts s to at most maxBytes without splitting a UTF-8 sequence
func truncateToMaxBytes(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
