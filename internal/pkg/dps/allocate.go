package dps

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/anicoll/localtuya-ir/internal/pkg/model"
)

// Allocate resolves candidate against the sibling records of one device.
// A final candidate is returned as is together with the untouched snapshot.
// A placeholder is replaced by max(max(siblings)+1, DynamicThreshold) and the
// returned snapshot is a copy with the owning record rewritten. The input
// snapshot is never modified.
func Allocate(candidate string, snapshot []model.EntityConfig) (ID, []model.EntityConfig, error) {
	id, err := ParseID(candidate)
	if err != nil {
		return ID{}, nil, err
	}
	if !id.IsPlaceholder() {
		return id, snapshot, nil
	}
	if len(snapshot) == 0 {
		return ID{}, nil, fmt.Errorf("%w: no sibling entities to allocate id %s against", ErrConfiguration, candidate)
	}

	ids := make([]int, 0, len(snapshot))
	owner := -1
	for i, entity := range snapshot {
		sibling, err := ParseID(entity.ID)
		if err != nil {
			return ID{}, nil, err
		}
		if owner < 0 && sibling.Value() == id.Value() {
			owner = i
		}
		ids = append(ids, sibling.Value())
	}
	if owner < 0 {
		return ID{}, nil, fmt.Errorf("%w: no entity with id %s", ErrConfiguration, candidate)
	}
	if dup := lo.FindDuplicates(ids); len(dup) > 0 {
		return ID{}, nil, fmt.Errorf("%w: duplicate entity ids %v", ErrConfiguration, dup)
	}
	highest := lo.Max(ids)
	if highest == math.MaxInt {
		return ID{}, nil, fmt.Errorf("%w: entity id %d leaves no room to allocate", ErrConfiguration, highest)
	}

	next := Final(max(highest+1, DynamicThreshold))
	out := slices.Clone(snapshot)
	out[owner].ID = next.String()
	return next, out, nil
}

// Allocator commits allocations for the entities of a single device.
// Resolve calls are serialised, so buttons of one device may be constructed
// from several goroutines without colliding.
type Allocator struct {
	mu       sync.Mutex
	entities []model.EntityConfig
	logger   *zap.Logger
}

func NewAllocator(entities []model.EntityConfig) *Allocator {
	return &Allocator{
		entities: slices.Clone(entities),
		logger:   zap.L(),
	}
}

// Resolve returns the final identifier for candidate, allocating one when
// candidate is a placeholder. An id held by more than one record is rejected.
func (a *Allocator) Resolve(candidate string) (ID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id, next, err := Allocate(candidate, a.entities)
	if err != nil {
		return ID{}, err
	}
	if n := lo.CountBy(next, holds(id)); n > 1 {
		return ID{}, fmt.Errorf("%w: entity id %s is used by %d records", ErrConfiguration, id, n)
	}
	if orig, _ := ParseID(candidate); orig.IsPlaceholder() {
		a.logger.Info("allocated dynamic id", zap.String("placeholder", candidate), zap.String("id", id.String()))
	}
	a.entities = next
	return id, nil
}

// Entity returns the record currently holding id.
func (a *Allocator) Entity(id ID) (model.EntityConfig, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return lo.Find(a.entities, holds(id))
}

func holds(id ID) func(model.EntityConfig) bool {
	return func(e model.EntityConfig) bool {
		v, err := ParseID(e.ID)
		return err == nil && v.Value() == id.Value()
	}
}

// Snapshot returns a copy of the records including every committed allocation.
func (a *Allocator) Snapshot() []model.EntityConfig {
	a.mu.Lock()
	defer a.mu.Unlock()

	return slices.Clone(a.entities)
}
