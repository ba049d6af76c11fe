package content

import (
	"encoding/json"
	"fmt"
	"os"

	"lexiquest/internal/models"
)

// LoadFromFile fills the cache from a bundled units JSON file. Used as the
// offline seed when the remote catalog is unreachable or unconfigured.
func LoadFromFile(cache *Cache, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read unit catalog %s: %w", path, err)
	}

	var units []models.Unit
	if err := json.Unmarshal(data, &units); err != nil {
		return fmt.Errorf("parse unit catalog %s: %w", path, err)
	}

	cache.Load(units)
	return nil
}
