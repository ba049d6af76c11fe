package service

import (
	"sync"

	"lexiquest/internal/badges"
	"lexiquest/internal/content"
	"lexiquest/internal/quest"
	"lexiquest/internal/srs"
	"lexiquest/internal/stats"
	"lexiquest/internal/store"
	syncer "lexiquest/internal/sync"
)

// Registry hands out one ProgressService per profile, building the engine
// stack lazily on first use. A device usually hosts one or two profiles.
type Registry struct {
	mu sync.Mutex

	store      *store.Store
	cache      *content.Cache
	catalog    *badges.Catalog
	reconciler *syncer.Reconciler

	services map[string]*ProgressService
}

func NewRegistry(st *store.Store, cache *content.Cache, catalog *badges.Catalog, reconciler *syncer.Reconciler) *Registry {
	return &Registry{
		store:      st,
		cache:      cache,
		catalog:    catalog,
		reconciler: reconciler,
		services:   make(map[string]*ProgressService),
	}
}

// Progress returns the service bound to a profile, creating it on first use.
func (r *Registry) Progress(profileID string) (*ProgressService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if svc, ok := r.services[profileID]; ok {
		return svc, nil
	}

	srsEngine, err := srs.NewEngine(r.store, r.cache, profileID)
	if err != nil {
		return nil, err
	}
	statsEngine := stats.NewEngine(r.store, r.catalog, profileID)
	quests := quest.NewGenerator(r.store, statsEngine, profileID)

	svc := NewProgressService(r.store, srsEngine, statsEngine, quests, r.reconciler, profileID)
	r.services[profileID] = svc
	return svc, nil
}

// Evict drops a profile's cached service, e.g. after its data is deleted.
func (r *Registry) Evict(profileID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.services, profileID)
}
