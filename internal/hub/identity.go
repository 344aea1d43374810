package hub

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/verte-zerg/dopamind/internal/model"
	"github.com/verte-zerg/dopamind/internal/store"
)

// ActiveProfileKey is the key-value key holding the logged in profile id.
const ActiveProfileKey = "active-profile"

// ThemeKey is the key-value key holding the selected theme.
const ThemeKey = "theme"

// ProfileStore is the storage the identity helpers need.
type ProfileStore interface {
	EnsureProfile(ctx context.Context, p model.Profile) (model.Profile, error)
	GetProfile(ctx context.Context, id string) (model.Profile, error)
	GetKV(ctx context.Context, key string) (string, bool, error)
	PutKV(ctx context.Context, key, value string) error
	DeleteKV(ctx context.Context, key string) error
}

// ProfileIDFor derives a stable profile id from an email address.
func ProfileIDFor(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+strings.ToLower(strings.TrimSpace(email)))).String()
}

// ValidateLogin checks the login form fields.
func ValidateLogin(name, email string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("display name must not be empty")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return fmt.Errorf("invalid email %q", email)
	}
	return nil
}

// Login creates or refreshes the profile for email and makes it the active one.
func Login(ctx context.Context, st ProfileStore, name, email string) (model.Profile, error) {
	if err := ValidateLogin(name, email); err != nil {
		return model.Profile{}, err
	}
	email = strings.TrimSpace(email)
	p, err := st.EnsureProfile(ctx, model.Profile{
		ID:          ProfileIDFor(email),
		DisplayName: strings.TrimSpace(name),
		Email:       email,
	})
	if err != nil {
		return model.Profile{}, fmt.Errorf("failed to save profile: %w", err)
	}
	if err := st.PutKV(ctx, ActiveProfileKey, p.ID); err != nil {
		return model.Profile{}, fmt.Errorf("failed to activate profile: %w", err)
	}
	return p, nil
}

// Logout clears the active profile.
func Logout(ctx context.Context, st ProfileStore) error {
	if err := st.DeleteKV(ctx, ActiveProfileKey); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	return nil
}

// Active returns the logged in profile. A dangling active id is cleared.
func Active(ctx context.Context, st ProfileStore) (model.Profile, bool, error) {
	id, ok, err := st.GetKV(ctx, ActiveProfileKey)
	if err != nil || !ok || id == "" {
		return model.Profile{}, false, err
	}
	p, err := st.GetProfile(ctx, id)
	if errors.Is(err, store.ErrProfileNotFound) {
		return model.Profile{}, false, st.DeleteKV(ctx, ActiveProfileKey)
	}
	if err != nil {
		return model.Profile{}, false, err
	}
	return p, true, nil
}
