package model

// ContactRecord represents a person found by the contact search provider.
// Name is the only required field; everything else is best-effort data the
// provider may or may not have unlocked.
type ContactRecord struct {
	Name         string `json:"name"`                     // Display name (required, non-empty)
	Title        string `json:"title,omitempty"`          // Job title
	Email        string `json:"email,omitempty"`          // May be a known placeholder (see IsPlaceholderEmail)
	ProfileURL   string `json:"linkedin_url,omitempty"`   // Professional network profile link
	Company      string `json:"company,omitempty"`        // Organization name
	Industry     string `json:"industry,omitempty"`       // Organization industry
	ProviderID   string `json:"provider_id,omitempty"`    // Provider-assigned external ID (stability unverified)
	FoundByRound int    `json:"found_by_round,omitempty"` // Round that produced this record (provenance)
	FoundBySpec  string `json:"found_by_spec,omitempty"`  // Fingerprint of the spec that produced it
}

// Placeholder email strings the provider returns for locked contacts.
// These must be treated as "no email" for identity purposes, never as
// real addresses.
var placeholderEmails = map[string]struct{}{
	"email_not_unlocked@domain.com":  {},
	"email_not_available@domain.com": {},
	"noemail@domain.com":             {},
}

// IsPlaceholderEmail reports whether the given email is a known provider
// placeholder rather than a real address.
func IsPlaceholderEmail(email string) bool {
	_, ok := placeholderEmails[email]
	return ok
}

// IdentityKey derives the deduplication key for the record, in priority
// order: non-placeholder email, then profile URL, then provider ID. The
// key is namespaced by tier so values from different tiers can never
// collide. A record with none of the three has no stable identity and
// returns the empty key: it is always treated as new.
func (c ContactRecord) IdentityKey() string {
	if c.Email != "" && !IsPlaceholderEmail(c.Email) {
		return "email:" + c.Email
	}
	if c.ProfileURL != "" {
		return "url:" + c.ProfileURL
	}
	if c.ProviderID != "" {
		return "id:" + c.ProviderID
	}
	return ""
}
