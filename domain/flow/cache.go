package flow

import (
	"context"
	"sync"
	"time"

	"statusflow/domain"
	"statusflow/domain/state"

	"github.com/fundwit/go-commons/types"
	"github.com/patrickmn/go-cache"
)

const (
	keyWorkflow    = "workflow:"
	keyTransitions = "transitions:"
	keyEntityType  = "type:"
	keyStatus      = "status:"
)

// CachedStore keeps workflow configuration in memory. Configuration writes call Invalidate.
// Cached values are copied on the way out so callers can not corrupt them.
// A load that overlaps an Invalidate returns its value without caching it.
type CachedStore struct {
	next  Store
	cache *cache.Cache

	mu         sync.Mutex
	generation uint64
}

func NewCachedStore(next Store, ttl time.Duration) *CachedStore {
	return &CachedStore{next: next, cache: cache.New(ttl, 2*ttl)}
}

func (s *CachedStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.cache.Flush()
}

func (s *CachedStore) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// put caches v unless an invalidation happened since generation was read.
func (s *CachedStore) put(generation uint64, key string, v interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation == generation {
		s.cache.SetDefault(key, v)
	}
}

func (s *CachedStore) LoadWorkflow(ctx context.Context, id types.ID) (*domain.Workflow, error) {
	key := keyWorkflow + id.String()
	if v, found := s.cache.Get(key); found {
		wf := v.(domain.Workflow)
		return &wf, nil
	}
	gen := s.currentGeneration()
	wf, err := s.next.LoadWorkflow(ctx, id)
	if err != nil {
		return nil, err
	}
	s.put(gen, key, *wf)
	return wf, nil
}

func (s *CachedStore) LoadTransitions(ctx context.Context, workflowID types.ID) ([]state.Transition, error) {
	key := keyTransitions + workflowID.String()
	if v, found := s.cache.Get(key); found {
		return copyTransitions(v.([]state.Transition)), nil
	}
	gen := s.currentGeneration()
	transitions, err := s.next.LoadTransitions(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	s.put(gen, key, copyTransitions(transitions))
	return transitions, nil
}

func (s *CachedStore) LoadEntityType(ctx context.Context, id types.ID) (*domain.EntityType, error) {
	key := keyEntityType + id.String()
	if v, found := s.cache.Get(key); found {
		t := v.(domain.EntityType)
		return &t, nil
	}
	gen := s.currentGeneration()
	t, err := s.next.LoadEntityType(ctx, id)
	if err != nil {
		return nil, err
	}
	s.put(gen, key, *t)
	return t, nil
}

func (s *CachedStore) LoadStatus(ctx context.Context, id types.ID) (*domain.Status, error) {
	key := keyStatus + id.String()
	if v, found := s.cache.Get(key); found {
		st := v.(domain.Status)
		return &st, nil
	}
	gen := s.currentGeneration()
	st, err := s.next.LoadStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	s.put(gen, key, *st)
	return st, nil
}

func (s *CachedStore) LoadStatuses(ctx context.Context, ids []types.ID) ([]domain.Status, error) {
	byID := map[types.ID]domain.Status{}
	var missing []types.ID
	for _, id := range ids {
		if v, found := s.cache.Get(keyStatus + id.String()); found {
			byID[id] = v.(domain.Status)
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		gen := s.currentGeneration()
		loaded, err := s.next.LoadStatuses(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, st := range loaded {
			byID[st.ID] = st
			s.put(gen, keyStatus+st.ID.String(), st)
		}
	}

	result := make([]domain.Status, 0, len(ids))
	for _, id := range ids {
		st, found := byID[id]
		if !found {
			loaded, err := s.LoadStatus(ctx, id)
			if err != nil {
				return nil, err
			}
			st = *loaded
		}
		result = append(result, st)
	}
	return result, nil
}

func copyTransitions(in []state.Transition) []state.Transition {
	out := make([]state.Transition, len(in))
	for i, t := range in {
		out[i] = t
		if t.Roles != nil {
			out[i].Roles = append([]types.ID{}, t.Roles...)
		}
	}
	return out
}
