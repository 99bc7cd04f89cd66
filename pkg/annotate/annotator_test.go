package annotate

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cicd-ai-toolkit/report-publisher/pkg/errors"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/platform"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/section"
)

var target = platform.Target{Project: "proj", Number: 1}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeDescription, false},
		{"description", ModeDescription, false},
		{"comment", ModeComment, false},
		{"none", ModeNone, false},
		{"wiki", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestAnnotator_Description(t *testing.T) {
	ctx := context.Background()
	mem := platform.NewMemory()
	mem.SetDescription(target, "Hi there\n")
	a := NewAnnotator(mem, ModeDescription, AlertPolicy{})
	e := NewEngine(newRecord(t, 1, 0), Options{})

	res, err := a.Annotate(ctx, e, target)
	if err != nil {
		t.Fatalf("Annotate() error = %v", err)
	}
	if !res.Updated {
		t.Error("Annotate() Updated = false, want true")
	}
	if want := e.UpsertDocument(ctx, "Hi there\n"); mem.Description(target) != want {
		t.Errorf("description = %q, want %q", mem.Description(target), want)
	}

	// Same run again: nothing to write.
	res, err = a.Annotate(ctx, e, target)
	if err != nil {
		t.Fatalf("Annotate() error = %v", err)
	}
	if res.Updated {
		t.Error("second Annotate() Updated = true, want false")
	}
	if diff := cmp.Diff([]string{"WriteDescription"}, mem.Calls()); diff != "" {
		t.Errorf("Calls() mismatch (-want +got):\n%s", diff)
	}
}

func TestAnnotator_Comment(t *testing.T) {
	ctx := context.Background()
	mem := platform.NewMemory()
	mem.AddComment(target, "human review")
	a := NewAnnotator(mem, ModeComment, AlertPolicy{})

	res, err := a.Annotate(ctx, NewEngine(newRecord(t, 1, 0), Options{}), target)
	if err != nil {
		t.Fatalf("Annotate() error = %v", err)
	}
	first := res.CommentID

	res, err = a.Annotate(ctx, NewEngine(newRecord(t, 2, 0), Options{}), target)
	if err != nil {
		t.Fatalf("Annotate() error = %v", err)
	}
	if res.CommentID != first || !res.Updated {
		t.Errorf("Annotate() = %+v, want update of comment %d", res, first)
	}

	comments := mem.Comments(target)
	if len(comments) != 2 {
		t.Fatalf("len(Comments()) = %d, want 2", len(comments))
	}
	if comments[0].Body != "human review" {
		t.Errorf("human comment changed to %q", comments[0].Body)
	}
	if !strings.Contains(comments[1].Body, "https://x/2") || !strings.Contains(comments[1].Body, "https://x/1") {
		t.Errorf("report comment = %q, want current run and history", comments[1].Body)
	}
	if diff := cmp.Diff([]string{"CreateComment", "UpdateComment"}, mem.Calls()); diff != "" {
		t.Errorf("Calls() mismatch (-want +got):\n%s", diff)
	}
}

func TestAnnotator_AlertLifecycle(t *testing.T) {
	ctx := context.Background()
	mem := platform.NewMemory()
	a := NewAnnotator(mem, ModeNone, DefaultAlertPolicy)

	steps := []struct {
		name        string
		failed      int
		wantAction  AlertAction
		wantCleared bool
		wantAlert   bool
	}{
		{"first failure creates", 2, AlertCreate, false, true},
		{"still failing recreates", 1, AlertRecreate, false, true},
		{"green clears", 0, AlertNone, true, false},
		{"green again is a no-op", 0, AlertNone, false, false},
	}

	for i, step := range steps {
		res, err := a.Annotate(ctx, NewEngine(newRecord(t, i+1, step.failed), Options{}), target)
		if err != nil {
			t.Fatalf("%s: Annotate() error = %v", step.name, err)
		}
		if res.Alert != step.wantAction || res.AlertCleared != step.wantCleared {
			t.Errorf("%s: Annotate() = %+v, want action %s cleared %v", step.name, res, step.wantAction, step.wantCleared)
		}
		alert, _ := mem.FindAlertComment(ctx, target, section.AlertMarker)
		if (alert != nil) != step.wantAlert {
			t.Errorf("%s: alert present = %v, want %v", step.name, alert != nil, step.wantAlert)
		}
	}

	want := []string{"CreateAlertComment", "DeleteComment", "CreateAlertComment", "DeleteComment"}
	if diff := cmp.Diff(want, mem.Calls()); diff != "" {
		t.Errorf("Calls() mismatch (-want +got):\n%s", diff)
	}
}

func TestAnnotator_AlertKeptWithoutClearOnSuccess(t *testing.T) {
	ctx := context.Background()
	mem := platform.NewMemory()
	mem.AddComment(target, section.AlertMarker+"\nold failure")
	a := NewAnnotator(mem, ModeNone, AlertPolicy{Enabled: true})

	if _, err := a.Annotate(ctx, NewEngine(newRecord(t, 1, 0), Options{}), target); err != nil {
		t.Fatalf("Annotate() error = %v", err)
	}
	if len(mem.Calls()) != 0 {
		t.Errorf("Calls() = %v, want none", mem.Calls())
	}
}

func TestAnnotator_ProviderErrorsAreFatal(t *testing.T) {
	tests := []struct {
		op   string
		mode Mode
	}{
		{"FetchDescription", ModeDescription},
		{"WriteDescription", ModeDescription},
		{"FindMainComment", ModeComment},
		{"CreateComment", ModeComment},
		{"FindAlertComment", ModeNone},
		{"CreateAlertComment", ModeNone},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			mem := platform.NewMemory()
			mem.FailOn(tt.op, errors.KindAuth)
			a := NewAnnotator(mem, tt.mode, DefaultAlertPolicy)

			_, err := a.Annotate(context.Background(), NewEngine(newRecord(t, 1, 3), Options{}), target)
			if !errors.IsType(err, errors.ErrAnnotate) {
				t.Fatalf("Annotate() error = %v, want annotate error", err)
			}
			if !errors.IsKind(err, errors.KindAuth) {
				t.Errorf("Annotate() error = %v, want wrapped auth provider error", err)
			}
			for _, want := range []string{tt.op, target.String()} {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q does not mention %q", err, want)
				}
			}
		})
	}
}

func TestAnnotator_SectionFailureSkipsAlert(t *testing.T) {
	mem := platform.NewMemory()
	mem.FailOn("WriteDescription", errors.KindNetwork)
	a := NewAnnotator(mem, ModeDescription, DefaultAlertPolicy)

	if _, err := a.Annotate(context.Background(), NewEngine(newRecord(t, 1, 1), Options{}), target); err == nil {
		t.Fatal("Annotate() expected error")
	}
	if len(mem.Calls()) != 0 {
		t.Errorf("Calls() = %v, want no alert activity after a failed write", mem.Calls())
	}
}
