package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"collab/internal/auth"
	"collab/internal/storage/sqlite"
)

const emailTakenMessage = "Email already exists"

type settingsRequest struct {
	FullName        string `json:"fullName" form:"fullName" binding:"required"`
	Email           string `json:"email" form:"email" binding:"required,email"`
	NewPassword     string `json:"newPassword" form:"newPassword" binding:"omitempty,min=8"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword" binding:"required_with=NewPassword,eqfield=NewPassword"`
}

var settingsFields = map[string]string{
	"FullName":        "fullName",
	"Email":           "email",
	"NewPassword":     "newPassword",
	"ConfirmPassword": "confirmPassword",
}

// handleEditSettings returns the current user along with any flashed errors.
func (s *Server) handleEditSettings(c *gin.Context) {
	user, err := s.store.GetUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user": user, "flash": s.takeFlash(c)})
}

// handleUpdateSettings saves profile changes. Validation failures and an
// email that belongs to another account are flashed back to the form.
func (s *Server) handleUpdateSettings(c *gin.Context) {
	ctx := c.Request.Context()

	var req settingsRequest
	if err := c.ShouldBind(&req); err != nil {
		s.flash(c, validationMessages(err))
		redirectBack(c, "/settings")
		return
	}

	user, err := s.store.GetUser(ctx, currentUserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}

	email := strings.TrimSpace(req.Email)
	if !strings.EqualFold(user.Email, email) {
		taken, err := s.store.EmailTaken(ctx, email, user.ID)
		if err != nil {
			s.fail(c, err)
			return
		}
		if taken {
			s.flash(c, map[string]string{"errors.email": emailTakenMessage})
			redirectBack(c, "/settings")
			return
		}
	}

	user.FullName = req.FullName
	user.Email = email
	user.PasswordHash = ""
	if req.NewPassword != "" {
		if user.PasswordHash, err = auth.HashPassword(req.NewPassword); err != nil {
			s.flash(c, map[string]string{"errors.newPassword": err.Error()})
			redirectBack(c, "/settings")
			return
		}
	}

	if _, err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, sqlite.ErrConflict) {
			s.flash(c, map[string]string{"errors.email": emailTakenMessage})
			redirectBack(c, "/settings")
			return
		}
		s.fail(c, err)
		return
	}
	redirectBack(c, "/settings")
}

// handleDestroyAccount deletes the current user and sends them to sign-up.
func (s *Server) handleDestroyAccount(c *gin.Context) {
	if err := s.store.DeleteUser(c.Request.Context(), currentUserID(c)); err != nil {
		s.fail(c, err)
		return
	}
	s.endSession(c)
	c.Redirect(http.StatusSeeOther, "/auth/sign_up")
}

// validationMessages turns binding errors into "errors.<field>" flash entries.
func validationMessages(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"errors.form": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field, ok := settingsFields[fe.Field()]
		if !ok {
			field = fe.Field()
		}
		out["errors."+field] = fieldMessage(field, fe)
	}
	return out
}

func fieldMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_with":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "eqfield":
		return fmt.Sprintf("%s must match %s", field, settingsFields[fe.Param()])
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
