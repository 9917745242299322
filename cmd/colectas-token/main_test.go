package main

import (
	"context"
	"testing"

	"colectas/internal/core"
	"colectas/internal/records/memory"
)

func TestBootstrapCreatesClubAndAccountOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	u, err := bootstrap(ctx, store, "club", "Club Atlético", core.Usuario{Email: "admin@club.org", Rol: core.RolAdmin})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if u.ID == "" || u.ClubID != "club" {
		t.Fatalf("usuario = %+v", u)
	}
	if club, err := store.GetClub(ctx, "club"); err != nil || club.Nombre != "Club Atlético" {
		t.Fatalf("club = %+v, %v", club, err)
	}

	again, err := bootstrap(ctx, store, "club", "ignored", core.Usuario{Email: "admin@club.org", Rol: core.RolAdmin})
	if err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	if again.ID != u.ID {
		t.Errorf("second run created a new account: %s != %s", again.ID, u.ID)
	}
	usuarios, _ := store.ListUsuarios(ctx, "club")
	if len(usuarios) != 1 {
		t.Errorf("usuarios = %d, want 1", len(usuarios))
	}
}

func TestBootstrapRejectsInvalidAccount(t *testing.T) {
	store := memory.New()
	if _, err := bootstrap(context.Background(), store, "club", "Club", core.Usuario{Email: "not-an-email", Rol: core.RolAdmin}); !core.IsValidationError(err) {
		t.Errorf("err = %v, want validation error", err)
	}
	if _, err := bootstrap(context.Background(), store, "", "Club", core.Usuario{Email: "a@b.c", Rol: core.RolAdmin}); err == nil {
		t.Error("expected an error for an empty club id")
	}
}
