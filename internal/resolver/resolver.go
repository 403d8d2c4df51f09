// Package resolver implements fire-sound resolution: mapping a fired weapon
// instance to the custom and/or official override events configured for it.
package resolver

import (
	"strings"

	"github.com/emitsound/extension/internal/cache"
	"github.com/emitsound/extension/internal/equipment"
	"github.com/emitsound/extension/internal/host"
	"github.com/emitsound/extension/internal/overrides"
)

// Decision is the outcome of resolving one shot. Either event may be empty;
// both empty means default host behavior is left untouched.
type Decision struct {
	ClassificationCode int
	CustomEvent        string
	OfficialEvent      string
}

// Empty reports whether no override applies.
func (d Decision) Empty() bool {
	return d.CustomEvent == "" && d.OfficialEvent == ""
}

// Service resolves shots against the override index, the weapon subclass
// tracker, and the player equipment map.
type Service struct {
	index     func() *overrides.Index
	tracker   *cache.SubclassTracker
	equipment *equipment.Map
}

// NewService creates a resolver. index is a getter because config reloads
// swap the override index wholesale.
func NewService(index func() *overrides.Index, tracker *cache.SubclassTracker, equipped *equipment.Map) *Service {
	return &Service{
		index:     index,
		tracker:   tracker,
		equipment: equipped,
	}
}

// Resolve maps a shot to its override events. ctx is the discharge-event
// context when resolving on the fire path; it is nil when re-deriving for a
// broadcast message, in which case silenced state comes from the weapon alone.
func (s *Service) Resolve(p host.Player, w host.Weapon, ctx *host.FireContext) Decision {
	if p == nil || !p.Valid() || w == nil || !w.Valid() {
		return Decision{}
	}

	ix := s.index()
	code := w.ClassificationCode()
	designer := w.DesignerName()

	eventWeapon := ""
	if ctx != nil {
		eventWeapon = ctx.WeaponName
	}
	effectiveBase := overrides.EffectiveBase(eventWeapon, designer, code)
	silenced := silencedState(w, ctx)

	decision := Decision{ClassificationCode: code}

	subclass := s.mappedSubclass(p, w, effectiveBase, designer, code)
	if subclass != "" {
		if o, ok := ix.BySubclass(subclass); ok {
			decision.CustomEvent = chooseEvent(o.TargetEvent, o.TargetEventUnsilenced, silenced)
		}
	}

	official, ok := ix.ByCode(code)
	if !ok {
		if fallback, has := overrides.FallbackClassification(effectiveBase, silenced); has {
			official, ok = ix.ByCode(fallback)
		}
	}
	if ok {
		decision.OfficialEvent = chooseEvent(official.TargetEvent, official.TargetEventUnsilenced, silenced)
	}

	return decision
}

// mappedSubclass finds the subclass equipped for the fired weapon: the live
// handle binding when it still matches the weapon, otherwise the equipment
// map by effective base, then by the alias alternate base. A fresh hit is
// rebound to the handle so the next shot skips the map walk.
func (s *Service) mappedSubclass(p host.Player, w host.Weapon, effectiveBase, designer string, code int) string {
	if bound, ok := s.tracker.Lookup(w.Handle()); ok {
		if overrides.MatchesWeapon(designer, code, bound) {
			return bound
		}
		// Weapon was re-skinned or the handle recycled; the binding lies.
		s.tracker.Unbind(w.Handle())
	}

	subclass, ok := s.equipment.Subclass(p.AccountID(), effectiveBase)
	if !ok {
		if alternate, has := overrides.AlternateBase(effectiveBase, code); has {
			subclass, ok = s.equipment.Subclass(p.AccountID(), alternate)
		}
	}
	if !ok {
		return ""
	}

	s.tracker.Bind(w.Handle(), subclass)
	return subclass
}

// silencedState prefers the explicit discharge-event flag, then the weapon's
// own indicator, defaulting to not silenced.
func silencedState(w host.Weapon, ctx *host.FireContext) bool {
	if ctx != nil && ctx.SilencedKnown {
		return ctx.Silenced
	}
	if w != nil && w.Valid() {
		return w.IsSilenced()
	}
	return false
}

// chooseEvent picks the unsilenced-specific event when one is configured and
// the weapon is not silenced, else the primary event. A blank choice means no
// override.
func chooseEvent(target, targetUnsilenced string, silenced bool) string {
	if strings.TrimSpace(targetUnsilenced) != "" && !silenced {
		return strings.TrimSpace(targetUnsilenced)
	}
	return strings.TrimSpace(target)
}
