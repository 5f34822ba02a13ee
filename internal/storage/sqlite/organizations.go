package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"collab/internal/models"
	"collab/internal/util"
)

// CreateOrganization creates a tenant and makes ownerID its owner.
func (s *Store) CreateOrganization(ctx context.Context, ownerID int64, name string) (models.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Organization{}, fmt.Errorf("organization name must not be empty: %w", ErrInvalid)
	}

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO organizations(slug, name) VALUES(?, ?)`, util.UniqueSlug(name), name)
		if err != nil {
			return fmt.Errorf("insert organization: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("organization id: %w", err)
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO memberships(user_id, organization_id, role) VALUES(?, ?, ?)`, ownerID, id, models.RoleOwner)
		if err != nil {
			return fmt.Errorf("insert membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Organization{}, err
	}

	var o models.Organization
	err = s.db.QueryRowContext(ctx, `SELECT id, slug, name, created_at FROM organizations WHERE id = ?`, id).
		Scan(&o.ID, &o.Slug, &o.Name, &o.CreatedAt)
	if err != nil {
		return models.Organization{}, fmt.Errorf("get organization: %w", err)
	}
	return o, nil
}

// AddMember grants userID access to an organization.
func (s *Store) AddMember(ctx context.Context, organizationID, userID int64, role string) (models.Membership, error) {
	if role == "" {
		role = models.RoleMember
	}
	if role != models.RoleOwner && role != models.RoleMember {
		return models.Membership{}, fmt.Errorf("unknown role %q: %w", role, ErrInvalid)
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO memberships(user_id, organization_id, role) VALUES(?, ?, ?)`, userID, organizationID, role)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Membership{}, fmt.Errorf("membership: %w", ErrConflict)
		}
		return models.Membership{}, fmt.Errorf("insert membership: %w", err)
	}
	return s.GetMember(ctx, organizationID, userID)
}

const memberQuery = `SELECT m.user_id, m.organization_id, m.role, u.email, u.full_name, m.created_at
        FROM memberships m JOIN users u ON u.id = m.user_id`

func scanMember(row interface{ Scan(...any) error }) (models.Membership, error) {
	var m models.Membership
	err := row.Scan(&m.UserID, &m.OrganizationID, &m.Role, &m.Email, &m.FullName, &m.CreatedAt)
	return m, err
}

// GetMember returns the membership of userID in an organization.
func (s *Store) GetMember(ctx context.Context, organizationID, userID int64) (models.Membership, error) {
	m, err := scanMember(s.db.QueryRowContext(ctx, memberQuery+` WHERE m.organization_id = ? AND m.user_id = ?`, organizationID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Membership{}, fmt.Errorf("membership: %w", ErrNotFound)
	}
	if err != nil {
		return models.Membership{}, fmt.Errorf("get membership: %w", err)
	}
	return m, nil
}

// ListMembers returns the members of an organization in joining order.
func (s *Store) ListMembers(ctx context.Context, organizationID int64) ([]models.Membership, error) {
	rows, err := s.db.QueryContext(ctx, memberQuery+` WHERE m.organization_id = ? ORDER BY m.rowid`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := []models.Membership{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListOrganizations returns the organizations userID belongs to.
func (s *Store) ListOrganizations(ctx context.Context, userID int64) ([]models.Organization, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT o.id, o.slug, o.name, o.created_at FROM organizations o
        JOIN memberships m ON m.organization_id = o.id WHERE m.user_id = ? ORDER BY o.created_at, o.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	orgs := []models.Organization{}
	for rows.Next() {
		var o models.Organization
		if err := rows.Scan(&o.ID, &o.Slug, &o.Name, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		orgs = append(orgs, o)
	}
	return orgs, rows.Err()
}

// GetOrganizationForUser resolves slug within the organizations userID is a member of.
// Non-members get ErrNotFound so that tenants cannot probe each other.
func (s *Store) GetOrganizationForUser(ctx context.Context, userID int64, slug string) (models.Organization, error) {
	var o models.Organization
	err := s.db.QueryRowContext(ctx, `SELECT o.id, o.slug, o.name, o.created_at FROM organizations o
        JOIN memberships m ON m.organization_id = o.id WHERE m.user_id = ? AND o.slug = ?`, userID, slug).
		Scan(&o.ID, &o.Slug, &o.Name, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Organization{}, fmt.Errorf("organization: %w", ErrNotFound)
	}
	if err != nil {
		return models.Organization{}, fmt.Errorf("get organization: %w", err)
	}
	return o, nil
}

// ListProjects retrieves the projects of an organization ordered by creation date.
func (s *Store) ListProjects(ctx context.Context, organizationID int64) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, organization_id, slug, name, created_at, updated_at
        FROM projects WHERE organization_id = ? ORDER BY created_at ASC, id ASC`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.Slug, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// CreateProject persists a new project. The slug derives from the name and gets
// a random suffix when the plain one is taken.
func (s *Store) CreateProject(ctx context.Context, organizationID int64, name string) (models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Project{}, fmt.Errorf("project name must not be empty: %w", ErrInvalid)
	}

	slug := util.Slugify(name)
	res, err := s.db.ExecContext(ctx, `INSERT INTO projects(organization_id, slug, name) VALUES(?, ?, ?)`, organizationID, slug, name)
	if err != nil && isUniqueViolation(err) {
		slug = util.UniqueSlug(name)
		res, err = s.db.ExecContext(ctx, `INSERT INTO projects(organization_id, slug, name) VALUES(?, ?, ?)`, organizationID, slug, name)
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("insert project: %w", err)
	}
	if _, err := res.LastInsertId(); err != nil {
		return models.Project{}, fmt.Errorf("project id: %w", err)
	}
	return s.GetProject(ctx, organizationID, slug)
}

// GetProject fetches a project by slug inside an organization.
func (s *Store) GetProject(ctx context.Context, organizationID int64, slug string) (models.Project, error) {
	var p models.Project
	err := s.db.QueryRowContext(ctx, `SELECT id, organization_id, slug, name, created_at, updated_at
        FROM projects WHERE organization_id = ? AND slug = ?`, organizationID, slug).
		Scan(&p.ID, &p.OrganizationID, &p.Slug, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, fmt.Errorf("project: %w", ErrNotFound)
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}
