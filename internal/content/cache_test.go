package content

import (
	"testing"

	"lexiquest/internal/models"
)

func testUnits() []models.Unit {
	return []models.Unit{
		{
			ID:    "u1",
			Grade: "grade5",
			Words: []models.VocabWord{{English: "apple"}, {English: "river"}},
		},
		{
			ID:    "u2",
			Grade: "grade5",
			Words: []models.VocabWord{{English: "mountain"}},
		},
		{
			ID:    "u3",
			Grade: "grade6",
			Words: []models.VocabWord{{English: "castle"}},
		},
	}
}

func TestCacheLoadAndClear(t *testing.T) {
	cache := NewCache()
	cache.Load(testUnits())

	if cache.Len() != 3 {
		t.Errorf("Len() = %d, want 3", cache.Len())
	}

	grade, ok := cache.UnitGrade("u1")
	if !ok || grade != "grade5" {
		t.Errorf("UnitGrade(u1) = %q, %v; want grade5, true", grade, ok)
	}

	if _, ok := cache.UnitGrade("missing"); ok {
		t.Error("UnitGrade(missing) should report not found")
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", cache.Len())
	}
}

func TestCacheUnitsForGrade(t *testing.T) {
	cache := NewCache()
	cache.Load(testUnits())

	ids := cache.UnitsForGrade("grade5")
	if len(ids) != 2 {
		t.Errorf("UnitsForGrade(grade5) = %v, want 2 units", ids)
	}

	if ids := cache.UnitsForGrade("grade1"); len(ids) != 0 {
		t.Errorf("UnitsForGrade(grade1) = %v, want none", ids)
	}
}

func TestCacheWordKeysForUnit(t *testing.T) {
	cache := NewCache()
	cache.Load(testUnits())

	keys := cache.WordKeysForUnit("u1")
	if len(keys) != 2 {
		t.Fatalf("WordKeysForUnit(u1) = %v, want 2 keys", keys)
	}
	if keys[0] != "u1|apple" {
		t.Errorf("first key = %q, want u1|apple", keys[0])
	}
}
