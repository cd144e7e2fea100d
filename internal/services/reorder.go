package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/smartyoni/inaeFlexbook/internal/core"
)

// Orderable is one member of a manually ordered sibling list. Categories
// and payment methods both project onto it.
type Orderable struct {
	ID    string
	Kind  core.Kind
	Order int
}

// OrderChange is a single persisted position update.
type OrderChange struct {
	ID    string
	Order int
}

// OrderStore is the persistence view the reorder service needs: the full
// member list (all kinds) and a way to write one member's position.
type OrderStore interface {
	ListOrderables(ctx context.Context) ([]Orderable, error)
	UpdateOrder(ctx context.Context, id string, order int) error
}

// ReorderService applies drag-and-drop reordering to a sibling list and
// persists the result. Writes go out one record at a time; concurrent
// reorders from two sessions resolve last-writer-wins.
type ReorderService struct {
	store OrderStore
}

func NewReorderService(store OrderStore) *ReorderService {
	return &ReorderService{store: store}
}

// PlanReorder computes the swap of draggedID and targetID inside their kind
// partition and returns the position updates to persist.
//
// The partition is the subset of members sharing the dragged member's kind,
// sorted by current order (stable, so duplicate or gapped order values
// degrade gracefully instead of failing). The two members exchange
// positions outright, then every member is assigned its dense 0-based index.
// Only members whose position actually changed appear in the result.
//
// ok is false for every no-op case: unknown ids, dragged == target, or a
// cross-partition drag. Members outside the partition are never touched.
func PlanReorder(members []Orderable, draggedID, targetID string) ([]OrderChange, bool) {
	if draggedID == targetID {
		return nil, false
	}

	var dragged, target *Orderable
	for i := range members {
		switch members[i].ID {
		case draggedID:
			dragged = &members[i]
		case targetID:
			target = &members[i]
		}
	}
	if dragged == nil || target == nil || dragged.Kind != target.Kind {
		return nil, false
	}

	partition := make([]Orderable, 0, len(members))
	for _, m := range members {
		if m.Kind == dragged.Kind {
			partition = append(partition, m)
		}
	}
	sort.SliceStable(partition, func(i, j int) bool {
		return partition[i].Order < partition[j].Order
	})

	di, ti := -1, -1
	for i, m := range partition {
		if m.ID == draggedID {
			di = i
		}
		if m.ID == targetID {
			ti = i
		}
	}
	if di < 0 || ti < 0 {
		return nil, false
	}
	partition[di], partition[ti] = partition[ti], partition[di]

	var changes []OrderChange
	for i, m := range partition {
		if m.Order != i {
			changes = append(changes, OrderChange{ID: m.ID, Order: i})
		}
	}
	return changes, true
}

// Reorder loads the current sibling list, plans the swap and persists every
// changed position. It returns the refreshed list so the caller can replace
// any stale in-memory state, also after a no-op.
func (s *ReorderService) Reorder(ctx context.Context, draggedID, targetID string) ([]Orderable, error) {
	members, err := s.store.ListOrderables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list siblings: %w", err)
	}

	changes, ok := PlanReorder(members, draggedID, targetID)
	if !ok {
		slog.DebugContext(ctx, "Reorder is a no-op",
			"dragged", draggedID,
			"target", targetID)
		return members, nil
	}

	for _, ch := range changes {
		if err := s.store.UpdateOrder(ctx, ch.ID, ch.Order); err != nil {
			return nil, fmt.Errorf("persist order for %s: %w", ch.ID, err)
		}
	}

	slog.InfoContext(ctx, "Reordered siblings",
		"dragged", draggedID,
		"target", targetID,
		"updated", len(changes))

	refreshed, err := s.store.ListOrderables(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh siblings: %w", err)
	}
	return refreshed, nil
}
