package model

// UserDiff is the pure three-way split of usernames between desired state
// and the live database: C = ToCreate, D = ToDelete, U = ToUpdate. The
// three buckets are pairwise disjoint and their union is desired ∪ live.
// ToDelete is unrestricted here — orphan protection is a separate gate
// applied by the caller via FilterOwnedDeletions, not folded into the
// split itself.
type UserDiff struct {
	ToCreate []string
	ToDelete []string
	ToUpdate []string
}

// DiffUsers computes detect_drift(desired, live): C = desired\live,
// D = live\desired, U = desired∩live.
func DiffUsers(desired DesiredSpec, live map[string]struct{}) UserDiff {
	var diff UserDiff
	for u := range desired {
		if _, ok := live[u]; ok {
			diff.ToUpdate = append(diff.ToUpdate, u)
		} else {
			diff.ToCreate = append(diff.ToCreate, u)
		}
	}
	for u := range live {
		if _, ok := desired[u]; !ok {
			diff.ToDelete = append(diff.ToDelete, u)
		}
	}
	return diff
}

// FilterOwnedDeletions restricts deletion candidates to users the
// controller previously recorded in last-applied state — the
// orphan-protection gate. Kept separate from DiffUsers so the pure split
// stays testable against the symmetry property on its own.
func FilterOwnedDeletions(candidates []string, lastApplied LastApplied) []string {
	var owned []string
	for _, u := range candidates {
		if _, ok := lastApplied[u]; ok {
			owned = append(owned, u)
		}
	}
	return owned
}

// Drift is the count of observable differences: creations plus
// orphan-protection-restricted deletions.
func (d UserDiff) Drift(lastApplied LastApplied) int {
	return len(d.ToCreate) + len(FilterOwnedDeletions(d.ToDelete, lastApplied))
}

// RoleDiff splits a user's current role membership against its desired
// roles into grants and revokes.
type RoleDiff struct {
	ToGrant  []string
	ToRevoke []string
}

// DiffRoles computes desired\current (grants) and current\desired
// (revokes) for one user's role membership.
func DiffRoles(current, desired map[string]struct{}) RoleDiff {
	var diff RoleDiff
	for role := range desired {
		if _, ok := current[role]; !ok {
			diff.ToGrant = append(diff.ToGrant, role)
		}
	}
	for role := range current {
		if _, ok := desired[role]; !ok {
			diff.ToRevoke = append(diff.ToRevoke, role)
		}
	}
	return diff
}

// Empty reports whether the role diff has nothing to grant or revoke.
func (d RoleDiff) Empty() bool {
	return len(d.ToGrant) == 0 && len(d.ToRevoke) == 0
}
