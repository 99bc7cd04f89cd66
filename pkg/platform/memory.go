package platform

import (
	"context"
	"strings"
	"sync"

	"github.com/cicd-ai-toolkit/report-publisher/pkg/errors"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/section"
)

// Memory is an in-memory Provider. It keeps one description and an
// ordered comment thread per target and records every mutating call.
type Memory struct {
	mu           sync.Mutex
	nextID       int64
	descriptions map[string]string
	comments     map[string][]Comment
	calls        []string
	fail         map[string]errors.ProviderErrorKind
}

// NewMemory creates an empty in-memory provider.
func NewMemory() *Memory {
	return &Memory{
		descriptions: make(map[string]string),
		comments:     make(map[string][]Comment),
		fail:         make(map[string]errors.ProviderErrorKind),
	}
}

// Name returns the platform name.
func (m *Memory) Name() string {
	return "memory"
}

// FailOn makes every later call to op fail with the given kind.
func (m *Memory) FailOn(op string, kind errors.ProviderErrorKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[op] = kind
}

// SetDescription seeds the description of t.
func (m *Memory) SetDescription(t Target, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.descriptions[t.String()] = text
}

// Description returns the stored description of t.
func (m *Memory) Description(t Target) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.descriptions[t.String()]
}

// AddComment seeds a comment on t and returns it.
func (m *Memory) AddComment(t Target, body string) Comment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.add(t, body)
}

// Comments returns the comment thread of t in creation order.
func (m *Memory) Comments(t Target) []Comment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Comment, len(m.comments[t.String()]))
	copy(out, m.comments[t.String()])
	return out
}

// Calls returns the mutating operations performed so far, in order.
func (m *Memory) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// FetchDescription returns the stored description.
func (m *Memory) FetchDescription(_ context.Context, t Target) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("FetchDescription", t); err != nil {
		return "", err
	}
	return m.descriptions[t.String()], nil
}

// WriteDescription replaces the stored description.
func (m *Memory) WriteDescription(_ context.Context, t Target, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("WriteDescription", t); err != nil {
		return err
	}
	m.calls = append(m.calls, "WriteDescription")
	m.descriptions[t.String()] = text
	return nil
}

// FindMainComment returns the first comment holding a managed section.
func (m *Memory) FindMainComment(_ context.Context, t Target) (*Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("FindMainComment", t); err != nil {
		return nil, err
	}
	return m.find(t, section.IsMatch), nil
}

// FindAlertComment returns the first comment containing marker.
func (m *Memory) FindAlertComment(_ context.Context, t Target, marker string) (*Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("FindAlertComment", t); err != nil {
		return nil, err
	}
	return m.find(t, func(body string) bool { return strings.Contains(body, marker) }), nil
}

// CreateComment appends a comment.
func (m *Memory) CreateComment(_ context.Context, t Target, body string) (*Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("CreateComment", t); err != nil {
		return nil, err
	}
	m.calls = append(m.calls, "CreateComment")
	c := m.add(t, body)
	return &c, nil
}

// CreateAlertComment appends an alert comment.
func (m *Memory) CreateAlertComment(_ context.Context, t Target, body string) (*Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("CreateAlertComment", t); err != nil {
		return nil, err
	}
	m.calls = append(m.calls, "CreateAlertComment")
	c := m.add(t, body)
	return &c, nil
}

// UpdateComment replaces a comment body.
func (m *Memory) UpdateComment(_ context.Context, t Target, id int64, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("UpdateComment", t); err != nil {
		return err
	}
	m.calls = append(m.calls, "UpdateComment")
	thread := m.comments[t.String()]
	for i := range thread {
		if thread[i].ID == id {
			thread[i].Body = body
			return nil
		}
	}
	return providerError(m.Name(), "UpdateComment", t, 404, nil)
}

// DeleteComment removes a comment.
func (m *Memory) DeleteComment(_ context.Context, t Target, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("DeleteComment", t); err != nil {
		return err
	}
	m.calls = append(m.calls, "DeleteComment")
	thread := m.comments[t.String()]
	for i := range thread {
		if thread[i].ID == id {
			m.comments[t.String()] = append(thread[:i:i], thread[i+1:]...)
			return nil
		}
	}
	return providerError(m.Name(), "DeleteComment", t, 404, nil)
}

func (m *Memory) add(t Target, body string) Comment {
	m.nextID++
	c := Comment{ID: m.nextID, Body: body}
	m.comments[t.String()] = append(m.comments[t.String()], c)
	return c
}

func (m *Memory) find(t Target, match func(string) bool) *Comment {
	for _, c := range m.comments[t.String()] {
		if match(c.Body) {
			c := c
			return &c
		}
	}
	return nil
}

func (m *Memory) check(op string, t Target) error {
	kind, ok := m.fail[op]
	if !ok {
		return nil
	}
	return &errors.ProviderError{
		Kind:     kind,
		Provider: m.Name(),
		Op:       op,
		Target:   t.String(),
	}
}
