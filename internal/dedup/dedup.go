// Package dedup merges contact sets accumulated across search rounds.
//
// Identity is derived per record with the priority email > profile URL >
// provider ID (model.ContactRecord.IdentityKey). Records with no stable
// identity are always kept: dropping a valid lead because the provider
// withheld its identifying fields would be a silent false negative, so
// the policy trades possible duplicates for no lost leads.
package dedup

import (
	"fmt"

	"github.com/leadscout/leadscout/internal/model"
)

// anonPrefix namespaces synthetic keys for records without a stable
// identity. Such records never deduplicate against anything.
const anonPrefix = "anon:"

// Merge folds incoming records into the accumulated set keyed by identity
// and reports how many were added. First-seen wins: if a key already
// exists the incoming record is dropped whole, with no field-level merging
// of partial data. Records without a stable identity are stored under a
// synthetic unique key and always count as added.
//
// Merge mutates and returns the existing map; a nil map is allocated.
func Merge(existing map[string]model.ContactRecord, incoming []model.ContactRecord) (map[string]model.ContactRecord, int) {
	if existing == nil {
		existing = make(map[string]model.ContactRecord)
	}

	anon := 0
	for key := range existing {
		if len(key) >= len(anonPrefix) && key[:len(anonPrefix)] == anonPrefix {
			anon++
		}
	}

	added := 0
	for _, c := range incoming {
		key := c.IdentityKey()
		if key == "" {
			// No stable identity: always treated as new.
			existing[fmt.Sprintf("%s%d", anonPrefix, anon)] = c
			anon++
			added++
			continue
		}
		if _, seen := existing[key]; seen {
			continue
		}
		existing[key] = c
		added++
	}

	return existing, added
}
