package models

import "time"

// User is an account that can belong to several organizations.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Organization is the tenant boundary; projects never cross it.
type Organization struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Membership roles.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// Membership links a user to an organization. Email and FullName are the
// member's profile fields, filled in when members are listed.
type Membership struct {
	UserID         int64     `json:"userId"`
	OrganizationID int64     `json:"organizationId"`
	Role           string    `json:"role"`
	Email          string    `json:"email"`
	FullName       string    `json:"fullName"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Project groups kanban boards inside an organization.
type Project struct {
	ID             int64     `json:"id"`
	OrganizationID int64     `json:"organizationId"`
	Slug           string    `json:"slug"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// KanbanBoard holds ordered columns of tasks. Version increases with every
// persisted change to the board, its columns or its tasks.
type KanbanBoard struct {
	ID        int64          `json:"id"`
	ProjectID int64          `json:"projectId"`
	Slug      string         `json:"slug"`
	Name      string         `json:"name"`
	Version   int64          `json:"version"`
	Columns   []KanbanColumn `json:"columns"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// KanbanColumn is a single list on a board.
type KanbanColumn struct {
	ID      int64        `json:"id"`
	BoardID int64        `json:"boardId"`
	Name    string       `json:"name"`
	Order   int64        `json:"order"`
	Tasks   []KanbanTask `json:"tasks"`
}

// KanbanTask represents a single card in a column.
type KanbanTask struct {
	ID          int64     `json:"id"`
	ColumnID    int64     `json:"columnId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Order       int64     `json:"order"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
