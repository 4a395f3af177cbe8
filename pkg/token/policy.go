package token

import "time"

// Policy fixes the lifetime of each token use. The same TTL is embedded in the
// token and applied to its registry entry, so signature expiry and registry
// eviction stay consistent.
type Policy struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 42069 * time.Minute,
	}
}

// TTL returns the lifetime for a token use, falling back to defaults for
// unset fields.
func (p Policy) TTL(use Use) time.Duration {
	defaults := DefaultPolicy()

	switch use {
	case UseRefresh:
		if p.RefreshTTL > 0 {
			return p.RefreshTTL
		}
		return defaults.RefreshTTL
	default:
		if p.AccessTTL > 0 {
			return p.AccessTTL
		}
		return defaults.AccessTTL
	}
}
