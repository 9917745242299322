// colectas-token bootstraps a club with an admin account and prints a
// signed session token for it.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"colectas/internal/backend"
	"colectas/internal/cli"
	"colectas/internal/core"
	"colectas/internal/log"
	"colectas/internal/records"
	"colectas/internal/session"
)

func main() {
	var (
		clubID   = flag.String("club", "", "club id (defaults to SEED_CLUB_ID)")
		clubName = flag.String("club-name", "", "club name used when the club does not exist yet")
		email    = flag.String("email", "", "account email (required)")
		nombre   = flag.String("nombre", "", "account display name")
		rol      = flag.String("rol", string(core.RolAdmin), "account role: admin or tesorero")
		outFile  = flag.String("out", "", "write the token as JSON to this file instead of stdout")
	)
	flag.Parse()

	cfg, logger := cli.LoadConfig(log.ComponentAuth)
	if *clubID == "" {
		*clubID = cfg.SeedClubID
	}
	if *clubName == "" {
		*clubName = cfg.SeedClubName
	}
	if backend.BackendType(cfg.DataBackend) == backend.MemoryBackend {
		logger.Warn("Memory backend does not persist; the account only exists for this run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	store := cli.InitBackend(ctx, cfg, logger)
	if store.Cleanup != nil {
		defer store.Cleanup()
	}

	u, err := bootstrap(ctx, store.Store, *clubID, *clubName, core.Usuario{
		Email:  strings.ToLower(strings.TrimSpace(*email)),
		Nombre: strings.TrimSpace(*nombre),
		Rol:    core.Rol(strings.ToLower(*rol)),
	})
	if err != nil {
		logger.Error("Bootstrap failed", log.FieldClubID, *clubID, log.FieldError, err)
		os.Exit(1)
	}

	issuer := session.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	token, err := issuer.Issue(session.Session{UserID: u.ID, ClubID: u.ClubID, Rol: u.Rol})
	if err != nil {
		logger.Error("Signing token failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Issued session token", log.FieldClubID, u.ClubID, log.FieldUserID, u.ID, "rol", string(u.Rol))

	if *outFile == "" {
		fmt.Println(token)
		return
	}
	f, err := os.OpenFile(*outFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		logger.Error("Open token file failed", log.FieldError, err)
		os.Exit(1)
	}
	defer f.Close()
	out := map[string]string{
		"token":      token,
		"club_id":    u.ClubID,
		"usuario_id": u.ID,
		"expires_at": time.Now().Add(cfg.TokenTTL).UTC().Format(time.RFC3339),
	}
	if err := json.NewEncoder(f).Encode(out); err != nil {
		logger.Error("Write token failed", log.FieldError, err)
		os.Exit(1)
	}
	fmt.Printf("Saved token to %s\n", *outFile)
}

// bootstrap creates the club when missing and returns the account with the
// given email, creating it when it does not exist.
func bootstrap(ctx context.Context, store records.Store, clubID, clubName string, in core.Usuario) (core.Usuario, error) {
	if _, err := store.GetClub(ctx, clubID); err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			return core.Usuario{}, err
		}
		club := core.Club{ID: clubID, Nombre: clubName, CreatedAt: time.Now().UTC()}
		if err := club.Validate(); err != nil {
			return core.Usuario{}, err
		}
		if err := store.SaveClub(ctx, club); err != nil {
			return core.Usuario{}, fmt.Errorf("create club: %w", err)
		}
	}

	usuarios, err := store.ListUsuarios(ctx, clubID)
	if err != nil {
		return core.Usuario{}, err
	}
	for _, u := range usuarios {
		if u.Email == in.Email {
			return u, nil
		}
	}

	in.ID, in.ClubID = uuid.NewString(), clubID
	if err := in.Validate(); err != nil {
		return core.Usuario{}, err
	}
	if err := store.CreateUsuario(ctx, in); err != nil {
		return core.Usuario{}, fmt.Errorf("create usuario: %w", err)
	}
	return in, nil
}
