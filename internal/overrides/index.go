// Package overrides holds the sound override lookup tables and the weapon
// subclass matching rules they key on.
package overrides

import (
	"strings"

	"github.com/emitsound/extension/internal/config"
)

// Index is the pair of override lookup tables built from configuration.
// Rebuild replaces both tables wholesale; there is no partial update.
type Index struct {
	bySubclass map[string]config.SubclassOverride
	byCode     map[int]config.ClassificationOverride
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		bySubclass: make(map[string]config.SubclassOverride),
		byCode:     make(map[int]config.ClassificationOverride),
	}
}

// Rebuild replaces the tables from raw config entries. Entries with a blank
// subclass, a non-positive code, or a blank primary event are dropped without
// error; overrides are operator-authored and optional. Duplicate subclasses
// are last-write-wins.
func (ix *Index) Rebuild(subclass []config.SubclassOverride, classification []config.ClassificationOverride) {
	bySubclass := make(map[string]config.SubclassOverride, len(subclass))
	for _, entry := range subclass {
		if strings.TrimSpace(entry.Subclass) == "" || strings.TrimSpace(entry.TargetEvent) == "" {
			continue
		}
		bySubclass[normalizeSubclass(entry.Subclass)] = entry
	}

	byCode := make(map[int]config.ClassificationOverride, len(classification))
	for _, entry := range classification {
		if entry.ClassificationCode <= 0 || strings.TrimSpace(entry.TargetEvent) == "" {
			continue
		}
		byCode[entry.ClassificationCode] = entry
	}

	ix.bySubclass = bySubclass
	ix.byCode = byCode
}

// BySubclass looks up a custom override by subclass, case-insensitively.
func (ix *Index) BySubclass(subclass string) (config.SubclassOverride, bool) {
	o, ok := ix.bySubclass[normalizeSubclass(subclass)]
	return o, ok
}

// ByCode looks up an official override by classification code.
func (ix *Index) ByCode(code int) (config.ClassificationOverride, bool) {
	o, ok := ix.byCode[code]
	return o, ok
}

// SubclassCount returns the number of indexed subclass overrides.
func (ix *Index) SubclassCount() int {
	return len(ix.bySubclass)
}

// CodeCount returns the number of indexed classification overrides.
func (ix *Index) CodeCount() int {
	return len(ix.byCode)
}

func normalizeSubclass(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
