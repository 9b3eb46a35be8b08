// Package dashboard holds the authoritative session list and every operation
// the dashboard offers on it. The list is only ever replaced by a full
// re-fetch; mutations never patch it locally.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"sessions-admin/internal/form"
	"sessions-admin/internal/types"
	"sessions-admin/internal/utils"
)

var (
	ErrNotFound       = errors.New("dashboard: session not found")
	ErrNothingPending = errors.New("dashboard: no delete pending")
)

const (
	msgSaveFailed    = "Failed to save session. Please try again."
	msgDeleteFailed  = "Failed to delete session. Please try again."
	msgSendFailed    = "Failed to send email. Please try again."
	msgSendAllFailed = "Failed to send emails. Please try again."
	msgSaved         = "Session saved"
)

// Backend is the slice of the API client the dashboard needs.
type Backend interface {
	ListSessions(ctx context.Context) ([]types.Session, error)
	CreateSession(ctx context.Context, payload types.SessionPayload) (types.Session, error)
	UpdateSession(ctx context.Context, id string, payload types.SessionPayload) (types.Session, error)
	DeleteSession(ctx context.Context, id string) error
	SendEmail(ctx context.Context, id string) error
	SendAllEmails(ctx context.Context) error
}

type Options struct {
	Logger *utils.Logger
	// Notifier, when set, receives every notice as it is raised.
	Notifier Notifier
}

type Controller struct {
	backend  Backend
	logger   *utils.Logger
	notifier Notifier
	form     *form.Controller

	mu         sync.Mutex
	sessions   []types.Session
	visible    []types.Session
	search     string
	loading    bool
	emailSends map[string]int
	allSends   int
	pending    *types.Session
	notice     Notice
	hasNotice  bool
}

func New(backend Backend, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Controller{
		backend:    backend,
		logger:     logger,
		notifier:   opts.Notifier,
		form:       form.NewController(),
		sessions:   []types.Session{},
		visible:    []types.Session{},
		emailSends: make(map[string]int),
	}
}

// Form is the controller behind the add/edit dialog.
func (c *Controller) Form() *form.Controller {
	return c.form
}

// Refresh replaces the collection with the backend's list. On failure the
// collection is emptied rather than left stale.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	sessions, err := c.backend.ListSessions(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.logger.Errorf("fetch sessions: %v", err)
		c.sessions = []types.Session{}
		c.visible = []types.Session{}
		return err
	}
	if sessions == nil {
		sessions = []types.Session{}
	}
	c.sessions = sessions
	c.visible = filterSessions(c.sessions, c.search)
	c.logger.Debugf("fetched %d sessions", len(sessions))
	return nil
}

func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// SetSearch changes the search term and recomputes the visible projection.
func (c *Controller) SetSearch(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.search = term
	c.visible = filterSessions(c.sessions, term)
}

func (c *Controller) Search() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.search
}

// Visible returns the filtered sessions in collection order.
func (c *Controller) Visible() []types.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneSessions(c.visible)
}

// Sessions returns the whole collection.
func (c *Controller) Sessions() []types.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneSessions(c.sessions)
}

func (c *Controller) Find(id string) (types.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.findLocked(id)
}

func (c *Controller) findLocked(id string) (types.Session, bool) {
	for _, session := range c.sessions {
		if session.ID == id {
			return session, true
		}
	}
	return types.Session{}, false
}

// Add opens an empty form.
func (c *Controller) Add() {
	c.form.Open(nil)
}

// Edit opens the form seeded with the session id.
func (c *Controller) Edit(id string) error {
	session, ok := c.Find(id)
	if !ok {
		return ErrNotFound
	}
	c.form.Open(&session)
	return nil
}

// Save submits the open form, creating or updating depending on whether it
// was opened for an existing session. On success the form is closed and the
// list re-fetched once; on failure the form stays open and the list is not
// touched. Validation failures return before any request is made.
func (c *Controller) Save(ctx context.Context) error {
	target := c.form.Target()
	var saveErr error
	err := c.form.Submit(func(payload types.SessionPayload) error {
		if target != nil {
			_, saveErr = c.backend.UpdateSession(ctx, target.ID, payload)
		} else {
			_, saveErr = c.backend.CreateSession(ctx, payload)
		}
		return saveErr
	})
	if err == nil {
		c.form.Close()
		if rerr := c.Refresh(ctx); rerr != nil {
			c.logger.Warnf("refresh after save: %v", rerr)
		}
		c.raise(LevelInfo, msgSaved)
		return nil
	}
	if saveErr != nil {
		c.logger.Errorf("save session: %v", saveErr)
		c.raise(LevelError, msgSaveFailed)
	}
	return err
}

// RequestDelete asks for confirmation before deleting id.
func (c *Controller) RequestDelete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	session, ok := c.findLocked(id)
	if !ok {
		return ErrNotFound
	}
	c.pending = &session
	return nil
}

// PendingDelete names the session awaiting confirmation.
func (c *Controller) PendingDelete() (types.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return types.Session{}, false
	}
	return *c.pending, true
}

func (c *Controller) CancelDelete() {
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
}

// ConfirmDelete deletes the pending session. The prompt is dismissed whatever
// the outcome.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()
	if pending == nil {
		return ErrNothingPending
	}

	if err := c.backend.DeleteSession(ctx, pending.ID); err != nil {
		c.logger.Errorf("delete session %s: %v", pending.ID, err)
		c.raise(LevelError, msgDeleteFailed)
		return err
	}
	if err := c.Refresh(ctx); err != nil {
		c.logger.Warnf("refresh after delete: %v", err)
	}
	return nil
}

// SendEmail notifies the faculty of one session. Sends for different
// sessions may overlap.
func (c *Controller) SendEmail(ctx context.Context, id string) error {
	c.mu.Lock()
	session, ok := c.findLocked(id)
	if !ok {
		c.mu.Unlock()
		return ErrNotFound
	}
	c.emailSends[id]++
	c.mu.Unlock()

	err := c.backend.SendEmail(ctx, id)

	c.mu.Lock()
	c.emailSends[id]--
	if c.emailSends[id] <= 0 {
		delete(c.emailSends, id)
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Errorf("send email for %s: %v", id, err)
		c.raise(LevelError, msgSendFailed)
		return err
	}
	c.raise(LevelInfo, fmt.Sprintf("Email sent successfully to %s", session.FacultyName))
	return nil
}

func (c *Controller) EmailInFlight(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.emailSends[id] > 0
}

// SendAllEmails asks the backend to notify every faculty. It does not wait
// for, or block, single sends.
func (c *Controller) SendAllEmails(ctx context.Context) error {
	c.mu.Lock()
	count := len(c.visible)
	c.allSends++
	c.mu.Unlock()

	err := c.backend.SendAllEmails(ctx)

	c.mu.Lock()
	c.allSends--
	c.mu.Unlock()

	if err != nil {
		c.logger.Errorf("send all emails: %v", err)
		c.raise(LevelError, msgSendAllFailed)
		return err
	}
	c.raise(LevelInfo, fmt.Sprintf("Emails sent successfully to all %d faculties", count))
	return nil
}

func (c *Controller) AllEmailsInFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allSends > 0
}

func cloneSessions(in []types.Session) []types.Session {
	out := make([]types.Session, len(in))
	copy(out, in)
	return out
}
