package history

import (
	"strings"

	"github.com/cicd-ai-toolkit/report-publisher/pkg/run"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/section"
)

// Parse reads the runs listed in a rendered managed section, in document
// order. The first one is the run that was current when the section was
// written; to the next invocation they are all earlier runs.
//
// Parsing is best effort. A line carrying a run payload that does not
// decode, or a list item without a payload, is skipped and counted in
// dropped.
func Parse(text string) (entries []run.Record, dropped int) {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.Contains(trimmed, section.RunTag):
			rec, err := decodeEntry(trimmed)
			if err != nil {
				dropped++
				continue
			}
			entries = append(entries, rec)
		case strings.HasPrefix(trimmed, "- "):
			dropped++
		}
	}
	return entries, dropped
}
