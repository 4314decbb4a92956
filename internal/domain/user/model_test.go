package user

import "testing"

func TestPrincipalHasAnyRole(t *testing.T) {
	p := Principal{UserID: "u1", Roles: []string{"viewer", " Admin "}}

	if !p.HasAnyRole("staff", "admin") {
		t.Fatalf("expected admin role match")
	}
	if p.HasAnyRole("staff") {
		t.Fatalf("unexpected staff match")
	}
	if (Principal{}).HasAnyRole("admin") {
		t.Fatalf("principal without roles must not match")
	}
	if p.HasAnyRole() {
		t.Fatalf("empty role list must not match")
	}
}
