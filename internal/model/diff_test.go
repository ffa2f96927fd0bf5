package model

import "testing"

func TestDiffUsersSymmetry(t *testing.T) {
	desired := DesiredSpec{
		"alice": UserRecord{Username: "alice"},
		"bob":   UserRecord{Username: "bob"},
	}
	// charlie is genuinely unowned: present in live, absent from desired,
	// and never recorded in last-applied state. detect_drift is pure, so
	// it must still land in D (ToDelete) — orphan protection is a
	// separate gate applied at deletion time, not folded in here.
	live := map[string]struct{}{"bob": {}, "charlie": {}}

	diff := DiffUsers(desired, live)

	union := make(map[string]struct{})
	for u := range desired {
		union[u] = struct{}{}
	}
	for u := range live {
		union[u] = struct{}{}
	}

	seen := make(map[string]string)
	for _, u := range diff.ToCreate {
		seen[u] = "create"
	}
	for _, u := range diff.ToDelete {
		if _, dup := seen[u]; dup {
			t.Fatalf("user %q appears in more than one diff bucket", u)
		}
		seen[u] = "delete"
	}
	for _, u := range diff.ToUpdate {
		if _, dup := seen[u]; dup {
			t.Fatalf("user %q appears in more than one diff bucket", u)
		}
		seen[u] = "update"
	}

	for u := range union {
		if _, ok := seen[u]; !ok {
			t.Fatalf("user %q from the union is missing from the diff", u)
		}
	}
	if len(seen) != len(union) {
		t.Fatalf("diff buckets cover %d users, union has %d", len(seen), len(union))
	}

	if seen["alice"] != "create" {
		t.Fatalf("expected alice to be a creation, got %s", seen["alice"])
	}
	if seen["bob"] != "update" {
		t.Fatalf("expected bob to be an update, got %s", seen["bob"])
	}
	if seen["charlie"] != "delete" {
		t.Fatalf("expected charlie to land in the pure D bucket, got %s", seen["charlie"])
	}
}

func TestFilterOwnedDeletionsDropsUnownedUsers(t *testing.T) {
	candidates := []string{"charlie"}
	lastApplied := LastApplied{}

	owned := FilterOwnedDeletions(candidates, lastApplied)

	if len(owned) != 0 {
		t.Fatalf("expected no deletions for an unowned live user, got %v", owned)
	}
}

func TestFilterOwnedDeletionsKeepsOwnedUsers(t *testing.T) {
	candidates := []string{"bob"}
	lastApplied := LastApplied{"bob": UserRecord{Username: "bob"}}

	owned := FilterOwnedDeletions(candidates, lastApplied)

	if len(owned) != 1 || owned[0] != "bob" {
		t.Fatalf("expected bob to be deleted, got %v", owned)
	}
}

func TestUserDiffDriftAppliesOrphanProtection(t *testing.T) {
	diff := UserDiff{
		ToCreate: []string{"alice"},
		ToDelete: []string{"bob", "charlie"},
	}
	lastApplied := LastApplied{"bob": UserRecord{Username: "bob"}}

	if got := diff.Drift(lastApplied); got != 2 {
		t.Fatalf("expected drift 2 (1 create + 1 owned delete), got %d", got)
	}
}

func TestDiffRoles(t *testing.T) {
	current := map[string]struct{}{"ro": {}}
	desired := map[string]struct{}{"rw": {}}

	diff := DiffRoles(current, desired)

	if len(diff.ToRevoke) != 1 || diff.ToRevoke[0] != "ro" {
		t.Fatalf("expected to revoke ro, got %v", diff.ToRevoke)
	}
	if len(diff.ToGrant) != 1 || diff.ToGrant[0] != "rw" {
		t.Fatalf("expected to grant rw, got %v", diff.ToGrant)
	}
}

func TestDiffRolesEmpty(t *testing.T) {
	same := map[string]struct{}{"ro": {}}
	diff := DiffRoles(same, same)
	if !diff.Empty() {
		t.Fatalf("expected no-op diff to be empty, got %+v", diff)
	}
}
