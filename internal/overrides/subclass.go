package overrides

import "strings"

// aliasPair records a weapon family whose members share one base identity but
// report a different classification code once an attachment is fitted. The
// table is fixed host knowledge, not configuration.
type aliasPair struct {
	base      string
	alternate string
}

var aliasByCode = map[int]aliasPair{
	60: {base: "weapon_m4a1", alternate: "weapon_m4a1_silencer"},
	61: {base: "weapon_hkp2000", alternate: "weapon_usp_silencer"},
}

// baseByCode overrides the reported base identity for codes whose designer
// name is unreliable.
var baseByCode = map[int]string{
	64: "weapon_revolver",
}

// AlternateBase returns the other member of an alias pair for the reported
// base and classification code. The mapping is symmetric: the silencer
// variant resolves back to the primary base and the primary resolves to the
// variant, so a subclass authored against either name matches both.
func AlternateBase(designerName string, code int) (string, bool) {
	pair, ok := aliasByCode[code]
	if !ok {
		return "", false
	}
	if strings.EqualFold(designerName, pair.base) {
		return pair.alternate, true
	}
	if strings.EqualFold(designerName, pair.alternate) {
		return pair.base, true
	}
	return "", false
}

// EffectiveBase chooses the base identity to match subclasses against.
// Precedence: the discharge-event weapon name, a code-keyed fixed base, then
// the instance's own designer name.
func EffectiveBase(eventWeapon, designerName string, code int) string {
	if trimmed := strings.TrimSpace(eventWeapon); trimmed != "" {
		return trimmed
	}
	if base, ok := baseByCode[code]; ok {
		return base
	}
	return designerName
}

// SubclassBase extracts the base weapon token from a raw subclass string of
// the form "prefix:base[+modifier]". Returns false when nothing remains.
func SubclassBase(rawSubclass string) (string, bool) {
	if strings.TrimSpace(rawSubclass) == "" {
		return "", false
	}

	s := rawSubclass
	if i := strings.Index(s, ":"); i >= 0 && i+1 < len(s) {
		s = s[i+1:]
	}
	if i := strings.Index(s, "+"); i >= 0 {
		s = s[:i]
	}

	base := strings.TrimSpace(s)
	if base == "" {
		return "", false
	}
	return base, true
}

// MatchesWeapon reports whether a subclass string belongs to a weapon with the
// given base identity and classification code, accounting for alias pairs.
func MatchesWeapon(designerName string, code int, subclass string) bool {
	subclassBase, ok := SubclassBase(subclass)
	if !ok {
		return false
	}

	if strings.EqualFold(subclassBase, designerName) {
		return true
	}

	if alternate, ok := AlternateBase(designerName, code); ok &&
		strings.EqualFold(subclassBase, alternate) {
		return true
	}

	return false
}

// MatchesBase reports whether a subclass string names the given base directly.
func MatchesBase(subclass, base string) bool {
	if strings.TrimSpace(base) == "" {
		return false
	}
	subclassBase, ok := SubclassBase(subclass)
	if !ok {
		return false
	}
	return strings.EqualFold(subclassBase, strings.TrimSpace(base))
}

// FallbackClassification derives a classification code from a base identity
// and the current silenced state, for variants whose reported code depends on
// attachment state.
func FallbackClassification(weaponName string, silenced bool) (int, bool) {
	switch strings.ToLower(strings.TrimSpace(weaponName)) {
	case "weapon_m4a1", "weapon_m4a1_silencer":
		if silenced {
			return 60, true
		}
		return 16, true
	case "weapon_hkp2000", "weapon_usp_silencer":
		if silenced {
			return 61, true
		}
		return 32, true
	}
	return 0, false
}

// ParseWeaponSpec splits a "base:subclass" equipment spec into its components.
func ParseWeaponSpec(spec string) (base, subclass string, ok bool) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) < 2 {
		return "", "", false
	}
	base = strings.TrimSpace(parts[0])
	subclass = strings.TrimSpace(parts[1])
	if base == "" || subclass == "" {
		return "", "", false
	}
	return base, subclass, true
}
