package devserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"sessions-admin/internal/types"
)

const ctxUserID = "userID"

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type createSessionRequest struct {
	SessionName string `json:"sessionName" binding:"required"`
	TopicName   string `json:"topicName" binding:"required"`
	Date        string `json:"date" binding:"required"`
	HallName    string `json:"hallName" binding:"required"`
	FacultyName string `json:"facultyName" binding:"required"`
	FacultyType string `json:"facultyType" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Mobile      string `json:"mobile" binding:"required,len=10,numeric"`
	StartTime   string `json:"startTime" binding:"required"`
	EndTime     string `json:"endTime" binding:"required"`
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.injectFailures())

	api := r.Group("/api")
	api.POST("/users/login", s.handleLogin)
	api.POST("/users/refresh-token", s.handleRefresh)

	protected := api.Group("", s.requireAuth())
	protected.POST("/users/logout", s.handleLogout)
	protected.GET("/sessions", s.handleListSessions)
	protected.POST("/users/sessions", s.handleCreateSession)
	protected.PUT("/sessions/:id", s.handleUpdateSession)
	protected.DELETE("/sessions/:id", s.handleDeleteSession)
	protected.POST("/sessions/send-all-emails", s.handleSendAllEmails)
	protected.POST("/sessions/:id/send-email", s.handleSendEmail)
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debugf("devserver %s %s -> %d in %s request_id=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start), c.GetHeader("X-Request-ID"))
	}
}

func (s *Server) injectFailures() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.Request.Method + " " + strings.TrimPrefix(c.FullPath(), "/api")
		if f, ok := s.takeFailure(route); ok {
			c.AbortWithStatusJSON(f.status, gin.H{"message": f.message})
			return
		}
		c.Next()
	}
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Access token missing"})
			return
		}
		claims, err := s.parseToken(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}
		s.mu.Lock()
		revoked := s.revoked[claims.ID]
		s.mu.Unlock()
		if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token has been revoked"})
			return
		}
		c.Set(ctxUserID, claims.Subject)
		c.Set("tokenID", claims.ID)
		c.Next()
	}
}

func (s *Server) issueToken(userID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) parseToken(raw string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email and password are required"})
		return
	}
	s.mu.Lock()
	acct, ok := s.accounts[strings.ToLower(req.Email)]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}
	token, err := s.issueToken(acct.user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not issue token"})
		return
	}
	refresh := uuid.NewString()
	s.mu.Lock()
	s.refresh[refresh] = acct.user.ID
	s.mu.Unlock()
	c.SetCookie(refreshCookie, refresh, int((7 * 24 * time.Hour).Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "accessToken": token, "user": acct.user})
}

func (s *Server) handleRefresh(c *gin.Context) {
	refresh, err := c.Cookie(refreshCookie)
	if err != nil || refresh == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Refresh token missing"})
		return
	}
	s.mu.Lock()
	userID, ok := s.refresh[refresh]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Refresh token invalid"})
		return
	}
	token, err := s.issueToken(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": token})
}

func (s *Server) handleLogout(c *gin.Context) {
	s.mu.Lock()
	s.revoked[c.GetString("tokenID")] = true
	if refresh, err := c.Cookie(refreshCookie); err == nil {
		delete(s.refresh, refresh)
	}
	s.mu.Unlock()
	c.SetCookie(refreshCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (s *Server) handleListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": s.Sessions()})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": validationMessage(err)})
		return
	}
	created := s.Seed(types.Session{
		SessionName: req.SessionName,
		TopicName:   req.TopicName,
		Date:        req.Date,
		HallName:    req.HallName,
		FacultyName: req.FacultyName,
		FacultyType: req.FacultyType,
		Email:       req.Email,
		Mobile:      req.Mobile,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	})
	c.JSON(http.StatusCreated, gin.H{"message": "Session created", "data": created[0]})
}

func (s *Server) handleUpdateSession(c *gin.Context) {
	var req types.SessionPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(c.Param("id"))
	if idx < 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Session not found"})
		return
	}
	session := s.sessions[idx]
	mergeNonEmpty(&session, req)
	session.UpdatedAt = s.now().UTC().Format(time.RFC3339Nano)
	s.sessions[idx] = session
	c.JSON(http.StatusOK, gin.H{"message": "Session updated", "data": session})
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(c.Param("id"))
	if idx < 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Session not found"})
		return
	}
	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)
	c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
}

func (s *Server) handleSendEmail(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(c.Param("id"))
	if idx < 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Session not found"})
		return
	}
	s.emails = append(s.emails, s.sessions[idx].Email)
	c.JSON(http.StatusOK, gin.H{"message": "Email sent"})
}

func (s *Server) handleSendAllEmails(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		s.emails = append(s.emails, session.Email)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Emails sent", "count": len(s.sessions)})
}

func (s *Server) indexLocked(id string) int {
	for i, session := range s.sessions {
		if session.ID == id {
			return i
		}
	}
	return -1
}

func mergeNonEmpty(dst *types.Session, src types.SessionPayload) {
	set := func(target *string, value string) {
		if value != "" {
			*target = value
		}
	}
	set(&dst.SessionName, src.SessionName)
	set(&dst.TopicName, src.TopicName)
	set(&dst.Date, src.Date)
	set(&dst.HallName, src.HallName)
	set(&dst.FacultyName, src.FacultyName)
	set(&dst.FacultyType, src.FacultyType)
	set(&dst.Email, src.Email)
	set(&dst.Mobile, src.Mobile)
	set(&dst.StartTime, src.StartTime)
	set(&dst.EndTime, src.EndTime)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid payload"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fmt.Sprintf("Invalid fields: %s", strings.Join(fields, ", "))
}
