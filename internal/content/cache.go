package content

import (
	"sync"

	"lexiquest/internal/models"
)

// Cache holds the vocabulary catalog (units, words, grade membership) for the
// session. It is constructed explicitly and injected; callers load it once
// from the remote catalog (or a local seed) and may Clear it between tests.
type Cache struct {
	mu    sync.RWMutex
	units map[string]models.Unit
}

// NewCache creates an empty vocabulary cache
func NewCache() *Cache {
	return &Cache{units: make(map[string]models.Unit)}
}

// Load replaces the cached catalog with the given units
func (c *Cache) Load(units []models.Unit) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.units = make(map[string]models.Unit, len(units))
	for _, u := range units {
		c.units[u.ID] = u
	}
}

// Clear empties the cache
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.units = make(map[string]models.Unit)
}

// Unit returns a cached unit by id
func (c *Cache) Unit(unitID string) (models.Unit, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.units[unitID]
	return u, ok
}

// UnitGrade returns the grade a unit belongs to
func (c *Cache) UnitGrade(unitID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.units[unitID]
	if !ok {
		return "", false
	}
	return u.Grade, true
}

// UnitsForGrade returns the ids of every unit in a grade
func (c *Cache) UnitsForGrade(grade string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var ids []string
	for id, u := range c.units {
		if u.Grade == grade {
			ids = append(ids, id)
		}
	}
	return ids
}

// WordKeysForUnit returns every word key in a unit
func (c *Cache) WordKeysForUnit(unitID string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.units[unitID]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(u.Words))
	for _, w := range u.Words {
		keys = append(keys, models.WordKey(unitID, w.English))
	}
	return keys
}

// Len returns the number of cached units
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.units)
}
