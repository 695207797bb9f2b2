package domain

import (
	"context"
	"errors"
	"time"
)

type CreateProjectRequest struct {
	ContactID   string
	Name        string
	Description string
	DueDate     *time.Time
}

type UpdateProjectRequest struct {
	ID          string
	Name        *string
	Description *string
	Status      *ProjectStatus
	DueDate     *time.Time
}

type ListProjectRequest struct {
	ContactID string
	Status    ProjectStatus
}

type CreateMilestoneRequest struct {
	ProjectID string
	Name      string
	DueDate   *time.Time
}

type Service interface {
	Create(ctx context.Context, req CreateProjectRequest) (Project, error)
	Update(ctx context.Context, req UpdateProjectRequest) (Project, error)
	GetByID(ctx context.Context, id string) (Project, error)
	List(ctx context.Context, req ListProjectRequest) ([]Project, error)
	SoftDelete(ctx context.Context, id string) error

	CreateMilestone(ctx context.Context, req CreateMilestoneRequest) (Milestone, error)
	CompleteMilestone(ctx context.Context, id string) (Milestone, error)
	ListMilestones(ctx context.Context, projectID string) ([]Milestone, error)

	// ListForContact serves the client portal: projects belonging to one
	// contact, without requiring a staff session.
	ListForContact(ctx context.Context, orgID, contactID string) ([]Project, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrNotFound            = errors.New("project_not_found")
	ErrMilestoneNotFound   = errors.New("milestone_not_found")
)
