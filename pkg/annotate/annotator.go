package annotate

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"

	"github.com/cicd-ai-toolkit/report-publisher/pkg/errors"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/platform"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/section"
)

// Mode selects the document holding the managed section.
type Mode string

const (
	// ModeDescription keeps the section in the request description.
	ModeDescription Mode = "description"
	// ModeComment keeps the section in a dedicated comment.
	ModeComment Mode = "comment"
	// ModeNone skips the section; the alert is still managed.
	ModeNone Mode = "none"
)

// ParseMode validates a configured mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeDescription, ModeComment, ModeNone:
		return m, nil
	case "":
		return ModeDescription, nil
	default:
		return "", errors.ConfigError(fmt.Sprintf("unknown annotation mode %q (want description, comment or none)", s), nil)
	}
}

// AlertPolicy controls the failure alert comment.
type AlertPolicy struct {
	Enabled bool
	// ClearOnSuccess deletes a leftover alert once a run is green.
	ClearOnSuccess bool
}

// DefaultAlertPolicy posts alerts on failure and clears them when fixed.
var DefaultAlertPolicy = AlertPolicy{Enabled: true, ClearOnSuccess: true}

// Result reports what an annotation changed.
type Result struct {
	Mode Mode
	// Updated is true when the section document was written.
	Updated bool
	// CommentID is the main comment in ModeComment.
	CommentID int64
	Alert     AlertAction
	// AlertCleared is true when a stale alert was removed.
	AlertCleared bool
}

// Annotator applies an Engine to a pull/merge request through a Provider.
type Annotator struct {
	provider platform.Provider
	mode     Mode
	alerts   AlertPolicy
}

// NewAnnotator creates an Annotator.
func NewAnnotator(p platform.Provider, mode Mode, alerts AlertPolicy) *Annotator {
	return &Annotator{provider: p, mode: mode, alerts: alerts}
}

// Annotate upserts the section and manages the alert for target. The first
// provider failure aborts the run.
func (a *Annotator) Annotate(ctx context.Context, e *Engine, target platform.Target) (Result, error) {
	ctx = clog.WithLogger(ctx, clog.FromContext(ctx).With(
		"platform", a.provider.Name(),
		"target", target.String(),
	))
	res := Result{Mode: a.mode}

	var err error
	switch a.mode {
	case ModeDescription:
		res.Updated, err = a.upsertDescription(ctx, e, target)
	case ModeComment:
		res.CommentID, res.Updated, err = a.upsertComment(ctx, e, target)
	case ModeNone:
		clog.InfoContext(ctx, "annotation disabled, skipping report section")
	default:
		return res, errors.ConfigError(fmt.Sprintf("unknown annotation mode %q", a.mode), nil)
	}
	if err != nil {
		return res, err
	}

	if a.alerts.Enabled {
		res.Alert, res.AlertCleared, err = a.syncAlert(ctx, e, target)
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

func (a *Annotator) upsertDescription(ctx context.Context, e *Engine, t platform.Target) (bool, error) {
	existing, err := a.provider.FetchDescription(ctx, t)
	if err != nil {
		return false, wrap("fetching description", "FetchDescription", t, err)
	}
	updated := e.UpsertDocument(ctx, existing)
	if updated == existing {
		clog.InfoContext(ctx, "description already up to date")
		return false, nil
	}
	if err := a.provider.WriteDescription(ctx, t, updated); err != nil {
		return false, wrap("writing description", "WriteDescription", t, err)
	}
	clog.InfoContext(ctx, "updated report section in description")
	return true, nil
}

func (a *Annotator) upsertComment(ctx context.Context, e *Engine, t platform.Target) (int64, bool, error) {
	main, err := a.provider.FindMainComment(ctx, t)
	if err != nil {
		return 0, false, wrap("finding report comment", "FindMainComment", t, err)
	}
	if main == nil {
		created, err := a.provider.CreateComment(ctx, t, e.UpsertDocument(ctx, ""))
		if err != nil {
			return 0, false, wrap("creating report comment", "CreateComment", t, err)
		}
		clog.InfoContext(ctx, "created report comment", "comment", created.ID)
		return created.ID, true, nil
	}

	updated := e.UpsertDocument(ctx, main.Body)
	if updated == main.Body {
		clog.InfoContext(ctx, "report comment already up to date", "comment", main.ID)
		return main.ID, false, nil
	}
	if err := a.provider.UpdateComment(ctx, t, main.ID, updated); err != nil {
		return main.ID, false, wrap("updating report comment", "UpdateComment", t, err)
	}
	clog.InfoContext(ctx, "updated report comment", "comment", main.ID)
	return main.ID, true, nil
}

func (a *Annotator) syncAlert(ctx context.Context, e *Engine, t platform.Target) (AlertAction, bool, error) {
	existing, err := a.provider.FindAlertComment(ctx, t, section.AlertMarker)
	if err != nil {
		return AlertNone, false, wrap("finding alert comment", "FindAlertComment", t, err)
	}

	action := DecideAlertAction(e.Current().Summary.HasFailures(), existing != nil)
	switch action {
	case AlertNone:
		if existing == nil || !a.alerts.ClearOnSuccess {
			return action, false, nil
		}
		if err := a.provider.DeleteComment(ctx, t, existing.ID); err != nil {
			return action, false, wrap("clearing alert comment", "DeleteComment", t, err)
		}
		clog.InfoContext(ctx, "cleared alert comment", "comment", existing.ID)
		return action, true, nil
	case AlertRecreate:
		if err := a.provider.DeleteComment(ctx, t, existing.ID); err != nil {
			return action, false, wrap("deleting alert comment", "DeleteComment", t, err)
		}
	}

	created, err := a.provider.CreateAlertComment(ctx, t, e.Renderer().AlertBody(e.Current()))
	if err != nil {
		return action, false, wrap("creating alert comment", "CreateAlertComment", t, err)
	}
	clog.InfoContext(ctx, "posted alert comment", "action", action.String(), "comment", created.ID)
	return action, false, nil
}

func wrap(message, op string, t platform.Target, err error) error {
	return errors.AnnotateError(message, err).
		WithContext("op", op).
		WithContext("target", t.String())
}
