package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"collab/internal/models"
)

const (
	organizationKey = "organization"
	projectKey      = "project"
)

type nameRequest struct {
	Name string `json:"name" form:"name" binding:"required"`
}

// handleListOrganizations returns the organizations of the current user.
func (s *Server) handleListOrganizations(c *gin.Context) {
	orgs, err := s.store.ListOrganizations(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"organizations": orgs})
}

// handleCreateOrganization creates an organization owned by the current user.
func (s *Server) handleCreateOrganization(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBind(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	org, err := s.store.CreateOrganization(c.Request.Context(), currentUserID(c), req.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"organization": org})
}

// loadOrganization resolves :organizationSlug among the user's organizations.
func (s *Server) loadOrganization(c *gin.Context) {
	org, err := s.store.GetOrganizationForUser(c.Request.Context(), currentUserID(c), c.Param("organizationSlug"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Set(organizationKey, org)
	c.Next()
}

// loadProject resolves :projectSlug inside the loaded organization.
func (s *Server) loadProject(c *gin.Context) {
	org := c.MustGet(organizationKey).(models.Organization)
	project, err := s.store.GetProject(c.Request.Context(), org.ID, c.Param("projectSlug"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Set(projectKey, project)
	c.Next()
}

// handleListProjects returns all projects of the organization.
func (s *Server) handleListProjects(c *gin.Context) {
	org := c.MustGet(organizationKey).(models.Organization)
	projects, err := s.store.ListProjects(c.Request.Context(), org.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"projects": projects})
}

// handleCreateProject creates a new project entity.
func (s *Server) handleCreateProject(c *gin.Context) {
	org := c.MustGet(organizationKey).(models.Organization)
	var req nameRequest
	if err := c.ShouldBind(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	project, err := s.store.CreateProject(c.Request.Context(), org.ID, req.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"project": project})
}

type memberRequest struct {
	Email string `json:"email" form:"email" binding:"required,email"`
	Role  string `json:"role" form:"role" binding:"omitempty,oneof=owner member"`
}

// handleListMembers returns everyone with access to the organization.
func (s *Server) handleListMembers(c *gin.Context) {
	org := c.MustGet(organizationKey).(models.Organization)
	members, err := s.store.ListMembers(c.Request.Context(), org.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"members": members})
}

// handleAddMember lets an owner grant an existing account access to the organization.
func (s *Server) handleAddMember(c *gin.Context) {
	ctx := c.Request.Context()
	org := c.MustGet(organizationKey).(models.Organization)

	current, err := s.store.GetMember(ctx, org.ID, currentUserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	if current.Role != models.RoleOwner {
		s.respondError(c, http.StatusForbidden, errors.New("only owners can add members"))
		return
	}

	var req memberRequest
	if err := c.ShouldBind(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		s.fail(c, err)
		return
	}
	member, err := s.store.AddMember(ctx, org.ID, user.ID, req.Role)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"member": member})
}
