package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"collab/internal/auth"
	"collab/internal/features"
	"collab/internal/storage/sqlite"
)

const (
	sessionCookie = "collab_session"
	userIDKey     = "userID"
)

type signUpRequest struct {
	FullName string `json:"fullName" form:"fullName" binding:"required"`
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required,min=8"`
}

type signInRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

// handleSignUp creates an account when public sign-up is enabled.
func (s *Server) handleSignUp(c *gin.Context) {
	if !s.flags.Enabled(features.SignUp) {
		s.respondError(c, http.StatusForbidden, errors.New("sign up is disabled"))
		return
	}

	var req signUpRequest
	if err := c.ShouldBind(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	user, err := s.store.CreateUser(c.Request.Context(), req.Email, req.FullName, hash)
	if err != nil {
		s.fail(c, err)
		return
	}

	token, err := s.startSession(c, user.ID)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"user": user, "token": token})
}

// handleSignIn exchanges credentials for a session token.
func (s *Server) handleSignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBind(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	user, err := s.store.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, sqlite.ErrNotFound) {
		s.fail(c, err)
		return
	}
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.respondError(c, http.StatusUnauthorized, errors.New("invalid email or password"))
		return
	}

	token, err := s.startSession(c, user.ID)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user": user, "token": token})
}

// handleSignOut clears the session cookie.
func (s *Server) handleSignOut(c *gin.Context) {
	s.endSession(c)
	respondSuccess(c, http.StatusOK, gin.H{"status": "signed out"})
}

func (s *Server) startSession(c *gin.Context, userID int64) (string, error) {
	token, err := s.tokens.Issue(userID)
	if err != nil {
		return "", err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, int(s.tokens.TTL().Seconds()), "/", "", s.secure, true)
	return token, nil
}

func (s *Server) endSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", s.secure, true)
}

// requireUser authenticates the request from a Bearer header or the session cookie.
func (s *Server) requireUser(c *gin.Context) {
	token := ""
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			s.respondError(c, http.StatusUnauthorized, errors.New("invalid authorization format"))
			return
		}
		token = strings.TrimSpace(parts[1])
	} else if cookie, err := c.Cookie(sessionCookie); err == nil {
		token = cookie
	}
	if token == "" {
		s.respondError(c, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	userID, err := s.tokens.Parse(token)
	if err != nil {
		s.respondError(c, http.StatusUnauthorized, err)
		return
	}
	c.Set(userIDKey, userID)
	c.Next()
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}
