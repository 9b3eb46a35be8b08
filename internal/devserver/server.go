// Package devserver is an in-memory implementation of the sessions backend.
// Tests run it behind httptest; `sessions-admin mock-server` runs it on a port
// for working against the TUI without the hosted API.
package devserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"sessions-admin/internal/types"
	"sessions-admin/internal/utils"
)

const refreshCookie = "refreshToken"

type account struct {
	user         types.User
	passwordHash []byte
}

type failure struct {
	status  int
	message string
}

type Server struct {
	mu       sync.Mutex
	accounts map[string]account
	sessions []types.Session
	revoked  map[string]bool
	refresh  map[string]string
	failNext map[string]failure
	emails   []string
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
	logger   *utils.Logger
	engine   *gin.Engine
	http     *http.Server
}

type Options struct {
	Secret   string
	TokenTTL time.Duration
	Logger   *utils.Logger
	Now      func() time.Time
}

func New(opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	if opts.Secret == "" {
		opts.Secret = uuid.NewString()
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewNopLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		accounts: make(map[string]account),
		revoked:  make(map[string]bool),
		refresh:  make(map[string]string),
		failNext: make(map[string]failure),
		secret:   []byte(opts.Secret),
		tokenTTL: opts.TokenTTL,
		now:      opts.Now,
		logger:   opts.Logger,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s.engine}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.http.Shutdown(ctxShutdown)
	}()
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// AddUser registers an account that can log in with email and password.
func (s *Server) AddUser(name, email, password string) (types.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return types.User{}, err
	}
	user := types.User{ID: uuid.NewString(), Name: name, Email: email}
	s.mu.Lock()
	s.accounts[strings.ToLower(email)] = account{user: user, passwordHash: hash}
	s.mu.Unlock()
	return user, nil
}

// Seed appends sessions as if they had been created through the API.
func (s *Server) Seed(sessions ...types.Session) []types.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Session, 0, len(sessions))
	for _, session := range sessions {
		stamp := s.now().UTC().Format(time.RFC3339Nano)
		if session.ID == "" {
			session.ID = newObjectID()
		}
		if session.CreatedAt == "" {
			session.CreatedAt = stamp
		}
		if session.UpdatedAt == "" {
			session.UpdatedAt = stamp
		}
		s.sessions = append(s.sessions, session)
		out = append(out, session)
	}
	return out
}

func (s *Server) Sessions() []types.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// SentEmails lists the faculty addresses mailed so far, in order.
func (s *Server) SentEmails() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.emails...)
}

// FailNext makes the next request matching route fail with status and
// message. Routes are written as method plus gin template relative to /api,
// for example "PUT /sessions/:id".
func (s *Server) FailNext(route string, status int, message string) {
	s.mu.Lock()
	s.failNext[route] = failure{status: status, message: message}
	s.mu.Unlock()
}

func (s *Server) takeFailure(route string) (failure, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.failNext[route]
	if ok {
		delete(s.failNext, route)
	}
	return f, ok
}

func newObjectID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}
