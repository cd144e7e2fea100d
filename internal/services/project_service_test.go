package services

import (
	"context"
	"errors"
	"testing"

	"github.com/smartyoni/inaeFlexbook/internal/amqp"
	"github.com/smartyoni/inaeFlexbook/internal/core"
)

type fakeProjectStore struct {
	projects   map[string]core.Project
	references map[string][]string
	cleared    []string
}

func newFakeProjectStore() *fakeProjectStore {
	return &fakeProjectStore{
		projects:   make(map[string]core.Project),
		references: make(map[string][]string),
	}
}

func (f *fakeProjectStore) CreateProject(_ context.Context, p core.Project) error {
	f.projects[p.ID] = p
	return nil
}

func (f *fakeProjectStore) UpdateProject(_ context.Context, p core.Project) error {
	if _, ok := f.projects[p.ID]; !ok {
		return errors.New("not found")
	}
	f.projects[p.ID] = p
	return nil
}

func (f *fakeProjectStore) DeleteProject(_ context.Context, id string) error {
	delete(f.projects, id)
	return nil
}

func (f *fakeProjectStore) GetProject(_ context.Context, id string) (core.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return core.Project{}, errors.New("not found")
	}
	return p, nil
}

func (f *fakeProjectStore) ListProjects(_ context.Context) ([]core.Project, error) {
	var out []core.Project
	for _, p := range f.projects {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProjectStore) ClearProjectReferences(_ context.Context, projectID string) ([]string, error) {
	ids := f.references[projectID]
	delete(f.references, projectID)
	f.cleared = append(f.cleared, projectID)
	return ids, nil
}

func TestDeleteLockedProjectRefused(t *testing.T) {
	store := newFakeProjectStore()
	svc := NewProjectService(store, &fakePublisher{})

	id, err := svc.CreateProject(context.Background(), core.Project{Name: "이사", Locked: true})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	err = svc.DeleteProject(context.Background(), id)
	if !errors.Is(err, core.ErrProjectLocked) {
		t.Fatalf("DeleteProject() error = %v, want ErrProjectLocked", err)
	}
	if _, ok := store.projects[id]; !ok {
		t.Error("locked project was deleted")
	}
	if len(store.cleared) != 0 {
		t.Error("references cleared for a locked project")
	}
}

func TestDeleteProjectDetachesTransactions(t *testing.T) {
	store := newFakeProjectStore()
	pub := &fakePublisher{}
	svc := NewProjectService(store, pub)

	id, err := svc.CreateProject(context.Background(), core.Project{Name: "여행"})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	store.references[id] = []string{"tx-1", "tx-2"}
	pub.published = nil

	if err := svc.DeleteProject(context.Background(), id); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}
	if _, ok := store.projects[id]; ok {
		t.Error("project still exists after delete")
	}

	var projectDeletes, txUpserts int
	for _, m := range pub.published {
		switch {
		case m.entity == amqp.EntityProject && m.op == amqp.OpDelete:
			projectDeletes++
		case m.entity == amqp.EntityTransaction && m.op == amqp.OpUpsert:
			txUpserts++
		}
	}
	if projectDeletes != 1 {
		t.Errorf("project delete messages = %d, want 1", projectDeletes)
	}
	if txUpserts != 2 {
		t.Errorf("detached transaction upserts = %d, want 2", txUpserts)
	}
}

func TestCreateProjectDefaultsStatus(t *testing.T) {
	store := newFakeProjectStore()
	svc := NewProjectService(store, nil)

	id, err := svc.CreateProject(context.Background(), core.Project{Name: "새 프로젝트"})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if got := store.projects[id].Status; got != core.ProjectActive {
		t.Errorf("Status = %q, want %q", got, core.ProjectActive)
	}
}

func TestUpdateProjectAllowsUnlocking(t *testing.T) {
	store := newFakeProjectStore()
	svc := NewProjectService(store, nil)

	id, err := svc.CreateProject(context.Background(), core.Project{Name: "잠금 해제", Locked: true})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	p := store.projects[id]
	p.Locked = false
	if err := svc.UpdateProject(context.Background(), p); err != nil {
		t.Fatalf("UpdateProject() error = %v", err)
	}
	if store.projects[id].Locked {
		t.Error("project still locked after update")
	}
}
