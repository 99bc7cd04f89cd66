package history

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cicd-ai-toolkit/report-publisher/pkg/run"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/section"
)

const tagSuffix = " -->"

// entry is the wire form of a run inside the managed section. Field names
// are part of the section format and must stay stable within a version.
type entry struct {
	URL          string      `json:"url"`
	ExecutorName string      `json:"executor,omitempty"`
	ExecutorType string      `json:"executor_type,omitempty"`
	BuildURL     string      `json:"build_url,omitempty"`
	BuildOrder   string      `json:"build_order,omitempty"`
	BuildName    string      `json:"build_name,omitempty"`
	CreatedAt    string      `json:"created_at"`
	Summary      run.Summary `json:"summary"`
}

// EncodeEntry renders the hidden payload that lets a later run read r back.
func EncodeEntry(r run.Record) string {
	data, err := json.Marshal(entry{
		URL:          r.ReportURL,
		ExecutorName: r.ExecutorName,
		ExecutorType: string(r.ExecutorType),
		BuildURL:     r.BuildURL,
		BuildOrder:   r.BuildOrder,
		BuildName:    r.BuildName,
		CreatedAt:    r.CreatedAt.UTC().Format(time.RFC3339),
		Summary:      r.Summary,
	})
	if err != nil {
		// entry only holds strings and ints
		panic(fmt.Sprintf("encoding history entry: %v", err))
	}
	// json.Marshal escapes '>' so the payload cannot close the comment early.
	return section.RunTag + string(data) + tagSuffix
}

// decodeEntry reads a run back from a rendered line.
func decodeEntry(line string) (run.Record, error) {
	i := strings.Index(line, section.RunTag)
	if i < 0 {
		return run.Record{}, fmt.Errorf("no run payload")
	}
	payload := line[i+len(section.RunTag):]
	j := strings.LastIndex(payload, tagSuffix)
	if j < 0 {
		return run.Record{}, fmt.Errorf("unterminated run payload")
	}
	payload = payload[:j]

	var e entry
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return run.Record{}, fmt.Errorf("decoding run payload: %w", err)
	}
	if err := run.ValidateReportURL(e.URL); err != nil {
		return run.Record{}, err
	}
	createdAt, err := time.Parse(time.RFC3339, e.CreatedAt)
	if err != nil {
		return run.Record{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if err := e.Summary.Validate(); err != nil {
		return run.Record{}, err
	}

	return run.Record{
		ReportURL:    e.URL,
		ExecutorName: e.ExecutorName,
		ExecutorType: run.ParseExecutorType(e.ExecutorType),
		BuildURL:     e.BuildURL,
		BuildOrder:   e.BuildOrder,
		BuildName:    e.BuildName,
		CreatedAt:    createdAt.UTC(),
		Summary:      e.Summary,
	}, nil
}
