package model

// AllowedPrivileges is the fixed set of privilege keywords the spec permits
// in a user record's privilege mapping. Anything outside this list is
// rejected rather than silently passed through to SQL, resolving the
// open question of what object-level grants the controller may emit.
var AllowedPrivileges = map[string]struct{}{
	"USAGE":      {},
	"CREATE":     {},
	"SELECT":     {},
	"INSERT":     {},
	"UPDATE":     {},
	"DELETE":     {},
	"TRUNCATE":   {},
	"REFERENCES": {},
	"TRIGGER":    {},
	"EXECUTE":    {},
	"CONNECT":    {},
	"TEMPORARY":  {},
}

// ValidPrivilege reports whether kw is an allow-listed privilege keyword.
func ValidPrivilege(kw string) bool {
	_, ok := AllowedPrivileges[kw]
	return ok
}

// ValidPrivilegeObject reports whether name is a safe schema identifier.
// Privilege object keys are restricted to schema names only (see
// DESIGN.md's resolution of the object-key ambiguity): they must match the
// same identifier grammar as a username.
func ValidPrivilegeObject(name string) bool {
	return usernamePattern.MatchString(name)
}
