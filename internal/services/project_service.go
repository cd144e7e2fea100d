package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/smartyoni/inaeFlexbook/internal/amqp"
	"github.com/smartyoni/inaeFlexbook/internal/core"
)

// ProjectService manages projects. Deleting a project detaches its
// transactions instead of deleting them; a locked project refuses
// deletion outright.
type ProjectService struct {
	store     ProjectStore
	publisher MirrorPublisher
	now       func() time.Time
}

func NewProjectService(store ProjectStore, publisher MirrorPublisher) *ProjectService {
	return &ProjectService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *ProjectService) CreateProject(ctx context.Context, p core.Project) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = core.ProjectActive
	}
	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := p.Validate(); err != nil {
		return "", fmt.Errorf("validate project: %w", err)
	}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return "", fmt.Errorf("save project: %w", err)
	}
	publishMirror(ctx, s.publisher, amqp.EntityProject, amqp.OpUpsert, p.ID)
	return p.ID, nil
}

// UpdateProject rewrites the project, including lock and status changes.
// Updates are allowed on locked projects so they can be unlocked again.
func (s *ProjectService) UpdateProject(ctx context.Context, p core.Project) error {
	p.UpdatedAt = s.now()

	if err := p.Validate(); err != nil {
		return fmt.Errorf("validate project: %w", err)
	}
	if err := s.store.UpdateProject(ctx, p); err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	publishMirror(ctx, s.publisher, amqp.EntityProject, amqp.OpUpsert, p.ID)
	return nil
}

// DeleteProject refuses locked projects, detaches every referencing
// transaction and then removes the project itself. Detached transactions
// are re-queued for the mirror so the cloud copy loses the reference too.
func (s *ProjectService) DeleteProject(ctx context.Context, id string) error {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return fmt.Errorf("load project: %w", err)
	}
	if p.Locked {
		return core.ErrProjectLocked
	}

	cleared, err := s.store.ClearProjectReferences(ctx, id)
	if err != nil {
		return fmt.Errorf("detach project transactions: %w", err)
	}
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	slog.InfoContext(ctx, "Deleted project",
		"project", id,
		"detached_transactions", len(cleared))

	publishMirror(ctx, s.publisher, amqp.EntityProject, amqp.OpDelete, id)
	for _, txID := range cleared {
		publishMirror(ctx, s.publisher, amqp.EntityTransaction, amqp.OpUpsert, txID)
	}
	return nil
}

func (s *ProjectService) GetProject(ctx context.Context, id string) (core.Project, error) {
	return s.store.GetProject(ctx, id)
}

func (s *ProjectService) ListProjects(ctx context.Context) ([]core.Project, error) {
	return s.store.ListProjects(ctx)
}
