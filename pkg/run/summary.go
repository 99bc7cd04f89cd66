package run

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SummaryFile is where Allure writes the run statistics inside a
// generated report.
const SummaryFile = "widgets/summary.json"

type allureSummary struct {
	Statistic struct {
		Total   int `json:"total"`
		Passed  int `json:"passed"`
		Failed  int `json:"failed"`
		Broken  int `json:"broken"`
		Skipped int `json:"skipped"`
		Unknown int `json:"unknown"`
	} `json:"statistic"`
}

// LoadSummary reads the test counts from a generated report directory.
func LoadSummary(reportDir string) (Summary, error) {
	path := filepath.Join(reportDir, filepath.FromSlash(SummaryFile))
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var raw allureSummary
	if err := json.Unmarshal(data, &raw); err != nil {
		return Summary{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	st := raw.Statistic
	s := Summary{
		Total:   st.Total,
		Passed:  st.Passed,
		Failed:  st.Failed,
		Broken:  st.Broken,
		Skipped: st.Skipped + st.Unknown,
	}
	if err := s.Validate(); err != nil {
		return Summary{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
