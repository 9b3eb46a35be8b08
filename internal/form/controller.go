// Package form owns the editable draft behind the add/edit session dialog:
// seeding from a stored session, validation and conversion back to the wire
// payload. It never talks to the network.
package form

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"sessions-admin/internal/timefmt"
	"sessions-admin/internal/types"
)

// ErrClosed is returned by operations that need an open form.
var ErrClosed = errors.New("form: not open")

// wireDateLayout matches what browsers emit for Date.toISOString.
const wireDateLayout = "2006-01-02T15:04:05.000Z07:00"

// SaveFunc receives the payload built by Submit.
type SaveFunc func(payload types.SessionPayload) error

// ValidationError lists the fields that block submission.
type ValidationError struct {
	FieldErrors map[Field]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.FieldErrors))
	for field := range e.FieldErrors {
		fields = append(fields, string(field))
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", Field(field).Label(), e.FieldErrors[Field(field)]))
	}
	return "form: " + strings.Join(parts, "; ")
}

type Controller struct {
	mu     sync.Mutex
	open   bool
	target *types.Session
	draft  Draft
}

func NewController() *Controller {
	return &Controller{}
}

// Open (re)initializes the form. A nil session starts a new one; otherwise
// the draft is seeded from a copy of session.
func (c *Controller) Open(session *types.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
	c.target = nil
	if session != nil {
		target := *session
		c.target = &target
	}
	c.draft = seedDraft(c.target)
}

// Close discards the draft.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	c.target = nil
	c.draft = Draft{}
}

func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Editing reports whether the form edits an existing session.
func (c *Controller) Editing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target != nil
}

// Target returns a copy of the session being edited, or nil in create mode.
func (c *Controller) Target() *types.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.target == nil {
		return nil
	}
	target := *c.target
	return &target
}

func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

func (c *Controller) Set(field Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return ErrClosed
	}
	return c.draft.set(field, value)
}

// Validate checks the draft. The error is a *ValidationError when a field is
// missing or malformed.
func (c *Controller) Validate() error {
	c.mu.Lock()
	draft := c.draft
	open := c.open
	c.mu.Unlock()
	if !open {
		return ErrClosed
	}
	return validateDraft(draft)
}

// Submit validates the draft and hands the wire payload to save. The form
// stays open whatever save returns; closing it is up to the caller.
func (c *Controller) Submit(save SaveFunc) error {
	c.mu.Lock()
	draft := c.draft
	open := c.open
	c.mu.Unlock()
	if !open {
		return ErrClosed
	}
	if err := validateDraft(draft); err != nil {
		return err
	}
	payload, err := buildPayload(trimDraft(draft))
	if err != nil {
		return err
	}
	return save(payload)
}

func buildPayload(d Draft) (types.SessionPayload, error) {
	day, ok := timefmt.ParseDay(d.Date)
	if !ok {
		return types.SessionPayload{}, &ValidationError{FieldErrors: map[Field]string{FieldDate: msgDate}}
	}
	return types.SessionPayload{
		SessionName: d.SessionName,
		TopicName:   d.TopicName,
		Date:        day.Format(wireDateLayout),
		HallName:    d.HallName,
		FacultyName: d.FacultyName,
		FacultyType: d.FacultyType,
		Email:       d.Email,
		Mobile:      d.Mobile,
		StartTime:   d.StartTime,
		EndTime:     d.EndTime,
	}, nil
}
