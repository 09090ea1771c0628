package recon

import (
	"carelytics.io/homehealth/internal/namekey"
	"carelytics.io/homehealth/internal/registry"
)

// PhysicianLookup maps normalized patient name keys to the physician
// (and original claim patient name) from the claims data. Construction
// is an explicit insertion-ordered, first-seen-wins reduce: when
// several claims share a key with different physicians, the earliest
// row's physician is kept, and fuzzy scans iterate keys in that same
// insertion order so tie-breaking is stable.
type PhysicianLookup struct {
	keys    []string
	entries map[string]lookupEntry
}

type lookupEntry struct {
	physician   string
	patientName string
}

// BuildPhysicianLookup builds the lookup from claims in input order.
func BuildPhysicianLookup(claims []registry.ClaimRecord) *PhysicianLookup {
	l := &PhysicianLookup{entries: make(map[string]lookupEntry, len(claims))}
	for _, claim := range claims {
		key := namekey.NormalizeKey(claim.PatientName)
		if key == "" {
			continue
		}
		if _, seen := l.entries[key]; seen {
			continue
		}
		l.keys = append(l.keys, key)
		l.entries[key] = lookupEntry{
			physician:   claim.Physician,
			patientName: claim.PatientName,
		}
	}
	return l
}

// Exact returns the physician and claim patient name for a key.
func (l *PhysicianLookup) Exact(key string) (physician, patientName string, ok bool) {
	e, ok := l.entries[key]
	return e.physician, e.patientName, ok
}

// Keys returns the lookup keys in insertion order.
func (l *PhysicianLookup) Keys() []string {
	return l.keys
}

// Len returns the number of distinct keys.
func (l *PhysicianLookup) Len() int {
	return len(l.keys)
}
