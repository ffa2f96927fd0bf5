package model

// DesiredSpec is the operator-declared set of users, keyed by username.
type DesiredSpec map[string]UserRecord

// LastApplied is the snapshot of the desired spec at the end of the last
// successful cycle, used to tell controller-owned users apart from
// pre-existing, externally-managed ones.
type LastApplied map[string]UserRecord

// LiveView is the observed state of the database at the start of a cycle.
type LiveView struct {
	Users  map[string]struct{}
	Groups map[string]struct{}
}

// NeededGroups returns the union of every role referenced by any record in
// the desired spec.
func (d DesiredSpec) NeededGroups() map[string]struct{} {
	out := make(map[string]struct{})
	for _, rec := range d {
		for _, role := range rec.Roles {
			out[role] = struct{}{}
		}
	}
	return out
}

// SystemDenylist is the fixed set of built-in role identifiers the
// controller must never create, drop, or grant/revoke against.
var SystemDenylist = map[string]struct{}{
	"postgres":                  {},
	"pg_monitor":                {},
	"pg_read_all_settings":      {},
	"pg_read_all_stats":         {},
	"pg_stat_scan_tables":       {},
	"pg_read_server_files":      {},
	"pg_write_server_files":     {},
	"pg_execute_server_program": {},
	"pg_signal_backend":         {},
	"rds_superuser":             {},
}

// IsDenied reports whether name is a system role the controller must never
// mutate.
func IsDenied(name string) bool {
	_, ok := SystemDenylist[name]
	return ok
}
