// Package permission gates operations by numeric permission level.
package permission

import (
	"errors"
	"fmt"
	"os"
	"sort"

	apierrors "github.com/yukikurage/lunch-order-api/internal/errors"
	"gopkg.in/yaml.v3"
)

// Level is an open enumeration; new tiers may appear without code changes.
type Level = int

const (
	User      Level = 1
	Manager   Level = 2
	ShopStaff Level = 10
	Admin     Level = 99
)

// Gate names used in the permission map.
const (
	GateShop      = "shop"
	GateManager   = "manager"
	GateAdmin     = "admin"
	GateCancelAny = "cancel_any"
)

var ErrNotAuthorized = apierrors.New(apierrors.KindNotAuthorized, "Access denied")

// Set is an allow-list of levels.
type Set map[Level]struct{}

// NewSet builds an allow-list from levels.
func NewSet(levels ...Level) Set {
	s := make(Set, len(levels))
	for _, l := range levels {
		s[l] = struct{}{}
	}
	return s
}

// Contains reports whether level is admitted.
func (s Set) Contains(level Level) bool {
	_, ok := s[level]
	return ok
}

// Levels returns the admitted levels in ascending order.
func (s Set) Levels() []Level {
	out := make([]Level, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}

// Authorize admits level only when it is a member of allowed.
func Authorize(level Level, allowed Set) error {
	if allowed.Contains(level) {
		return nil
	}
	return fmt.Errorf("%w: level %d not in %v", ErrNotAuthorized, level, allowed.Levels())
}

// Map holds the named gates.
type Map map[string]Set

// DefaultMap is used when no permission-map file is configured.
func DefaultMap() Map {
	return Map{
		GateShop:      NewSet(ShopStaff, Admin),
		GateManager:   NewSet(Manager, Admin),
		GateAdmin:     NewSet(Admin),
		GateCancelAny: NewSet(Admin),
	}
}

// Gate returns the named allow-list. Unknown gates admit nobody.
func (m Map) Gate(name string) Set {
	if s, ok := m[name]; ok {
		return s
	}
	return Set{}
}

type mapFile struct {
	Gates map[string][]Level `yaml:"gates"`
}

// LoadMap reads a YAML permission map. Gates missing from the file keep their
// defaults. A missing file yields DefaultMap.
func LoadMap(path string) (Map, error) {
	m := DefaultMap()
	if path == "" {
		return m, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return m, nil
		}
		return nil, fmt.Errorf("failed to read permission map: %w", err)
	}

	var f mapFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse permission map: %w", err)
	}

	for name, levels := range f.Gates {
		if len(levels) == 0 {
			return nil, fmt.Errorf("gate %s: at least one level is required", name)
		}
		m[name] = NewSet(levels...)
	}
	return m, nil
}
