// Package model holds the value types shared across the controller: user
// records, the desired/last-applied spec shapes, the live database view and
// per-cycle statistics.
package model

import (
	"regexp"
	"sort"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// UserRecord is an immutable declaration of one database user: the database
// it may connect to, the group roles it should inherit, and any extra
// object-level grants.
type UserRecord struct {
	Username   string              `yaml:"username" json:"username"`
	Database   string              `yaml:"database" json:"database"`
	Roles      []string            `yaml:"roles" json:"roles"`
	Privileges map[string][]string `yaml:"privileges" json:"privileges"`
}

// ValidUsername reports whether name matches the identifier grammar the
// spec requires: it must not be empty and must start with a letter or
// underscore.
func ValidUsername(name string) bool {
	return usernamePattern.MatchString(name)
}

// Normalize returns a copy of r with its role set sorted and deduplicated
// and its privilege keyword lists sorted and deduplicated, so that two
// structurally-equivalent records compare equal regardless of the order
// their source document listed roles or privileges in.
func (r UserRecord) Normalize() UserRecord {
	out := UserRecord{
		Username: r.Username,
		Database: r.Database,
		Roles:    sortedUnique(r.Roles),
	}
	if len(r.Privileges) > 0 {
		out.Privileges = make(map[string][]string, len(r.Privileges))
		for obj, kws := range r.Privileges {
			out.Privileges[obj] = sortedUnique(kws)
		}
	}
	return out
}

// Equal reports whether r and other describe the same user: same username,
// database, role set and privilege mapping once both are normalized.
func (r UserRecord) Equal(other UserRecord) bool {
	a, b := r.Normalize(), other.Normalize()
	if a.Username != b.Username || a.Database != b.Database {
		return false
	}
	if !stringSliceEqual(a.Roles, b.Roles) {
		return false
	}
	if len(a.Privileges) != len(b.Privileges) {
		return false
	}
	for obj, kws := range a.Privileges {
		other, ok := b.Privileges[obj]
		if !ok || !stringSliceEqual(kws, other) {
			return false
		}
	}
	return true
}

// RoleSet returns r's roles as a set for membership diffing.
func (r UserRecord) RoleSet() map[string]struct{} {
	set := make(map[string]struct{}, len(r.Roles))
	for _, role := range r.Roles {
		set[role] = struct{}{}
	}
	return set
}

func sortedUnique(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
