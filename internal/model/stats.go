package model

import "time"

// ReconcileStats accumulates the outcome of one reconciliation cycle.
type ReconcileStats struct {
	UsersCreated int
	UsersUpdated int
	UsersDeleted int
	RolesCreated int
	RolesDeleted int
	Drift        int
	Errors       int
	Start        time.Time
	End          time.Time
}

// AddError increments the per-cycle error counter. Kept as a method rather
// than a bare field increment so call sites read the same whether the
// error came from a user, a role, or a fetch.
func (s *ReconcileStats) AddError() {
	s.Errors++
}
