package hub

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/verte-zerg/dopamind/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "hub.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return st
}

func TestValidateLogin(t *testing.T) {
	cases := []struct {
		name, email string
		ok          bool
	}{
		{"Ada", "ada@example.com", true},
		{"  ", "ada@example.com", false},
		{"Ada", "", false},
		{"Ada", "not-an-email", false},
		{"Ada", "Ada <ada@example.com>", false},
	}
	for _, tc := range cases {
		err := ValidateLogin(tc.name, tc.email)
		if tc.ok && err != nil {
			t.Fatalf("expected %q/%q to pass, got %v", tc.name, tc.email, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("expected %q/%q to fail", tc.name, tc.email)
		}
	}
}

func TestProfileIDForIgnoresCaseAndSpace(t *testing.T) {
	a := ProfileIDFor("Ada@Example.com")
	b := ProfileIDFor("  ada@example.com ")
	if a != b {
		t.Fatalf("expected stable ids, got %s and %s", a, b)
	}
	if a == ProfileIDFor("bob@example.com") {
		t.Fatalf("expected different emails to differ")
	}
}

func TestLoginActiveLogout(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := Active(ctx, st); err != nil || ok {
		t.Fatalf("expected no active profile, got ok=%v err=%v", ok, err)
	}
	p, err := Login(ctx, st, " Ada ", "ada@example.com")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if p.DisplayName != "Ada" || p.ID != ProfileIDFor("ada@example.com") {
		t.Fatalf("unexpected profile %+v", p)
	}
	got, ok, err := Active(ctx, st)
	if err != nil || !ok || got.ID != p.ID {
		t.Fatalf("expected active profile %s, got %+v ok=%v err=%v", p.ID, got, ok, err)
	}

	again, err := Login(ctx, st, "Ada L", "ADA@example.com")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if again.ID != p.ID || again.DisplayName != "Ada L" {
		t.Fatalf("expected the same profile renamed, got %+v", again)
	}

	if err := Logout(ctx, st); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok, _ := Active(ctx, st); ok {
		t.Fatalf("expected no active profile after logout")
	}
	if _, err := st.GetProfile(ctx, p.ID); err != nil {
		t.Fatalf("expected the profile to survive logout: %v", err)
	}
}

func TestLoginRejectsInvalidInput(t *testing.T) {
	st := openTestStore(t)
	if _, err := Login(context.Background(), st, "", "ada@example.com"); err == nil {
		t.Fatalf("expected an empty name to fail")
	}
	if _, ok, _ := Active(context.Background(), st); ok {
		t.Fatalf("expected a failed login to leave nobody active")
	}
}

func TestActiveClearsDanglingProfile(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if err := st.PutKV(ctx, ActiveProfileKey, "ghost"); err != nil {
		t.Fatalf("put kv: %v", err)
	}
	if _, ok, err := Active(ctx, st); err != nil || ok {
		t.Fatalf("expected a dangling id to resolve to nobody, got ok=%v err=%v", ok, err)
	}
	if _, ok, _ := st.GetKV(ctx, ActiveProfileKey); ok {
		t.Fatalf("expected the dangling id to be cleared")
	}
}
