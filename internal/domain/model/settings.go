package model

// Settings holds the admin-controlled knobs that apply to every exchange.
type Settings struct {
	DefaultModel string
	// AllowedModels restricts which model IDs users may pick. Empty or
	// WhitelistEnabled=false means any ID is accepted.
	AllowedModels    []string
	WhitelistEnabled bool
	// UserSelection gates /model for non-admin users.
	UserSelection bool
	// RequestTimeoutSeconds bounds each model request attempt.
	RequestTimeoutSeconds int
}

func (s Settings) ModelAllowed(id string) bool {
	if !s.WhitelistEnabled || len(s.AllowedModels) == 0 {
		return true
	}
	for _, m := range s.AllowedModels {
		if m == id {
			return true
		}
	}
	return false
}
