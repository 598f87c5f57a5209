package entities

import "time"

// DirectoryUser is one account in the identity provider.
type DirectoryUser struct {
	Email             string    `json:"email"`
	Suspended         bool      `json:"suspended"`
	Archived          bool      `json:"archived"`
	IsAdmin           bool      `json:"is_admin"`
	TwoFactorEnrolled bool      `json:"two_factor_enrolled"`
	TwoFactorEnforced bool      `json:"two_factor_enforced"`
	LastLogin         time.Time `json:"last_login,omitzero"`
}

// IsActive reports whether the account is neither suspended nor archived.
func (u DirectoryUser) IsActive() bool {
	return !u.Suspended && !u.Archived
}

// HasLoggedIn reports whether the account has ever signed in.
func (u DirectoryUser) HasLoggedIn() bool {
	return !u.LastLogin.IsZero() && u.LastLogin.Unix() > 0
}

// DirectoryGroup is one group in the identity provider.
type DirectoryGroup struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Members int64  `json:"members"`
}

// DirectoryDomain is one domain registered with the identity provider.
type DirectoryDomain struct {
	Name     string `json:"name"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// UserCensus counts the active accounts of a workspace.
type UserCensus struct {
	Total             int      `json:"total"`
	Active            int      `json:"active"`
	Suspended         int      `json:"suspended"`
	Archived          int      `json:"archived"`
	TwoFactorEnrolled int      `json:"two_factor_enrolled"`
	TwoFactorEnforced int      `json:"two_factor_enforced"`
	EnrolledPercent   int      `json:"enrolled_percent"`
	EnforcedPercent   int      `json:"enforced_percent"`
	NeverLoggedIn     []string `json:"never_logged_in"`
	Stale             []string `json:"stale"`
	Admins            []string `json:"admins"`
	AdminsWithout2FA  []string `json:"admins_without_2fa"`
}

// WorkspaceAggregate is the normalized state of one workspace used for scoring.
type WorkspaceAggregate struct {
	Domain      string            `json:"domain"`
	Users       UserCensus        `json:"users"`
	GroupCount  int               `json:"group_count"`
	Domains     []DirectoryDomain `json:"domains"`
	CollectedAt time.Time         `json:"collected_at"`
}
