package auth

import "strings"

// AdminPolicy decides which signed-in users may edit content.
type AdminPolicy struct {
	emails map[string]struct{}
}

// NewAdminPolicy grants admin rights to the listed emails, compared
// case-insensitively.
func NewAdminPolicy(emails ...string) AdminPolicy {
	p := AdminPolicy{emails: make(map[string]struct{}, len(emails))}
	for _, e := range emails {
		e = normalizeEmail(e)
		if e != "" {
			p.emails[e] = struct{}{}
		}
	}
	return p
}

func (p AdminPolicy) IsAdmin(email string) bool {
	_, ok := p.emails[normalizeEmail(email)]
	return ok
}

// Apply sets the admin flag on a freshly fetched profile.
func (p AdminPolicy) Apply(profile Profile) Profile {
	profile.IsAdmin = p.IsAdmin(profile.Email)
	return profile
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
