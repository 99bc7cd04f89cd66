package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cicd-ai-toolkit/report-publisher/pkg/errors"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/section"
)

func newTestGitee(t *testing.T, handler http.HandlerFunc) *Gitee {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGitee("secret", server.URL+"/api/v5")
}

func TestGitee_Description(t *testing.T) {
	var written string
	g := newTestGitee(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "token secret" {
			t.Errorf("Authorization = %s, want token secret", got)
		}
		if r.URL.Path != "/api/v5/repos/owner/repo/pulls/3" {
			t.Errorf("path = %s", r.URL.Path)
		}
		switch r.Method {
		case http.MethodGet:
			fmt.Fprint(w, `{"number": 3, "body": "desc"}`)
		case http.MethodPatch:
			var in map[string]string
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				t.Errorf("decoding request: %v", err)
			}
			written = in["body"]
			fmt.Fprint(w, `{"number": 3}`)
		}
	})
	target := Target{Project: "owner/repo", Number: 3}

	got, err := g.FetchDescription(context.Background(), target)
	if err != nil {
		t.Fatalf("FetchDescription() error = %v", err)
	}
	if got != "desc" {
		t.Errorf("FetchDescription() = %q, want desc", got)
	}
	if err := g.WriteDescription(context.Background(), target, "updated"); err != nil {
		t.Fatalf("WriteDescription() error = %v", err)
	}
	if written != "updated" {
		t.Errorf("written body = %q, want updated", written)
	}
}

func TestGitee_FindCommentPaging(t *testing.T) {
	var pages []string
	g := newTestGitee(t, func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		if page == "1" {
			// A full page means there may be more.
			items := make([]string, giteePageSize)
			for i := range items {
				items[i] = fmt.Sprintf(`{"id": %d, "body": "c%d"}`, i+1, i+1)
			}
			fmt.Fprint(w, "["+strings.Join(items, ",")+"]")
			return
		}
		fmt.Fprintf(w, `[{"id": 500, "body": %q}]`, section.AlertMarker+"\nfailing")
	})
	target := Target{Project: "owner/repo", Number: 3}

	alert, err := g.FindAlertComment(context.Background(), target, section.AlertMarker)
	if err != nil {
		t.Fatalf("FindAlertComment() error = %v", err)
	}
	if alert == nil || alert.ID != 500 {
		t.Errorf("FindAlertComment() = %+v, want comment 500", alert)
	}
	if fmt.Sprint(pages) != "[1 2]" {
		t.Errorf("pages = %v, want [1 2]", pages)
	}

	pages = nil
	main, err := g.FindMainComment(context.Background(), target)
	if err != nil {
		t.Fatalf("FindMainComment() error = %v", err)
	}
	if main != nil {
		t.Errorf("FindMainComment() = %+v, want nil", main)
	}
}

func TestGitee_CommentLifecycle(t *testing.T) {
	var requests []string
	g := newTestGitee(t, func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id": 9, "body": "b"}`)
		case http.MethodPatch:
			fmt.Fprint(w, `{"id": 9}`)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	})
	ctx := context.Background()
	target := Target{Project: "owner/repo", Number: 3}

	c, err := g.CreateAlertComment(ctx, target, "b")
	if err != nil {
		t.Fatalf("CreateAlertComment() error = %v", err)
	}
	if c.ID != 9 {
		t.Errorf("CreateAlertComment() ID = %d, want 9", c.ID)
	}
	if err := g.UpdateComment(ctx, target, 9, "c"); err != nil {
		t.Fatalf("UpdateComment() error = %v", err)
	}
	if err := g.DeleteComment(ctx, target, 9); err != nil {
		t.Fatalf("DeleteComment() error = %v", err)
	}

	want := []string{
		"POST /api/v5/repos/owner/repo/pulls/3/comments",
		"PATCH /api/v5/repos/owner/repo/pulls/comments/9",
		"DELETE /api/v5/repos/owner/repo/pulls/comments/9",
	}
	if fmt.Sprint(requests) != fmt.Sprint(want) {
		t.Errorf("requests = %v, want %v", requests, want)
	}
}

func TestGitee_Errors(t *testing.T) {
	g := newTestGitee(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := g.CreateComment(context.Background(), Target{Project: "owner/repo", Number: 3}, "x")
	if !errors.IsKind(err, errors.KindAuth) {
		t.Errorf("CreateComment() error = %v, want auth kind", err)
	}

	_, err = g.FetchDescription(context.Background(), Target{Project: "no-slash", Number: 3})
	if !errors.IsKind(err, errors.KindUnknown) {
		t.Errorf("FetchDescription() error = %v, want unknown kind", err)
	}
}
