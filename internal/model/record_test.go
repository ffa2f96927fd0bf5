package model

import "testing"

func TestUserRecordNormalize(t *testing.T) {
	r := UserRecord{
		Username: "alice",
		Database: "app",
		Roles:    []string{"b_role", "a_role", "a_role"},
		Privileges: map[string][]string{
			"public": {"INSERT", "SELECT", "SELECT"},
		},
	}
	got := r.Normalize()

	want := []string{"a_role", "b_role"}
	if len(got.Roles) != len(want) {
		t.Fatalf("roles = %v, want %v", got.Roles, want)
	}
	for i, role := range want {
		if got.Roles[i] != role {
			t.Fatalf("roles[%d] = %q, want %q", i, got.Roles[i], role)
		}
	}
	if len(got.Privileges["public"]) != 2 {
		t.Fatalf("privileges[public] = %v, want 2 deduplicated entries", got.Privileges["public"])
	}
}

func TestUserRecordEqualIgnoresOrder(t *testing.T) {
	a := UserRecord{Username: "bob", Database: "app", Roles: []string{"ro", "rw"}}
	b := UserRecord{Username: "bob", Database: "app", Roles: []string{"rw", "ro"}}
	if !a.Equal(b) {
		t.Fatalf("expected records with differently-ordered roles to compare equal")
	}
}

func TestUserRecordEqualDetectsRoleDifference(t *testing.T) {
	a := UserRecord{Username: "bob", Database: "app", Roles: []string{"ro"}}
	b := UserRecord{Username: "bob", Database: "app", Roles: []string{"rw"}}
	if a.Equal(b) {
		t.Fatalf("expected records with different roles to compare unequal")
	}
}

func TestValidUsername(t *testing.T) {
	cases := map[string]bool{
		"alice":      true,
		"_alice":     true,
		"alice_2":    true,
		"":           false,
		"2alice":     false,
		"alice bob":  false,
		"alice;drop": false,
	}
	for name, want := range cases {
		if got := ValidUsername(name); got != want {
			t.Errorf("ValidUsername(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestIsDenied(t *testing.T) {
	if !IsDenied("postgres") {
		t.Fatalf("expected postgres to be denied")
	}
	if IsDenied("alice") {
		t.Fatalf("expected alice to not be denied")
	}
}
