// Package users implements the admin panel's user management on top of a
// credential store.
package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"tms-portal/internal/activity"
	"tms-portal/internal/auth"
	"tms-portal/internal/credstore"
	"tms-portal/internal/logging"
	"tms-portal/internal/models"
)

var ErrInvalidInput = errors.New("invalid input")

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9._@-]+$`)

// User is what the admin panel shows. Secrets never leave the store.
type User struct {
	Username string          `json:"username"`
	Name     string          `json:"name"`
	Role     models.UserRole `json:"role"`
}

type NewUser struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type Service struct {
	store    credstore.Store
	hasher   *auth.Hasher
	activity activity.Log
	log      logging.Logger
}

func NewService(store credstore.Store, h *auth.Hasher, act activity.Log, log logging.Logger) *Service {
	return &Service{store: store, hasher: h, activity: act, log: log}
}

// List returns every user with a username, sorted by username.
func (s *Service) List(ctx context.Context) ([]User, error) {
	recs, err := s.store.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrSourceUnavailable, err)
	}

	byName := make(map[string]User, len(recs))
	for _, r := range recs {
		if r.Username == "" {
			continue
		}
		byName[r.Username] = User{
			Username: r.Username,
			Name:     r.Name,
			Role:     models.ParseRole(strings.TrimSpace(r.Role)),
		}
	}

	out := make([]User, 0, len(byName))
	for _, u := range byName {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// Create hashes the password and adds the user. actor is the admin doing it.
func (s *Service) Create(ctx context.Context, actor string, nu NewUser) (User, error) {
	nu.Username = strings.TrimSpace(nu.Username)
	nu.Name = strings.TrimSpace(nu.Name)
	nu.Role = strings.TrimSpace(nu.Role)

	switch {
	case nu.Username == "" || nu.Name == "" || nu.Password == "" || nu.Role == "":
		return User{}, fmt.Errorf("%w: all fields are required", ErrInvalidInput)
	case !usernameRe.MatchString(nu.Username):
		return User{}, fmt.Errorf("%w: username may contain only letters, digits and . _ @ -", ErrInvalidInput)
	case nu.Role != string(models.RoleAdmin) && nu.Role != string(models.RoleUser):
		return User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, nu.Role)
	}

	hash, err := s.hasher.Hash(nu.Password)
	if err != nil {
		return User{}, err
	}

	rec := auth.RawRecord{
		Username: nu.Username,
		Name:     nu.Name,
		Secret:   hash,
		IsHashed: true,
		Role:     nu.Role,
	}
	if err := s.store.Add(ctx, rec); err != nil {
		return User{}, err
	}

	s.record(ctx, actor, fmt.Sprintf("Added user: %s (%s)", nu.Username, nu.Role))
	return User{Username: nu.Username, Name: nu.Name, Role: models.UserRole(nu.Role)}, nil
}

func (s *Service) Delete(ctx context.Context, actor, username string) error {
	if err := s.store.Delete(ctx, username); err != nil {
		return err
	}
	s.record(ctx, actor, "Deleted user: "+username)
	return nil
}

// EnsureAdmin creates the bootstrap admin account if it does not exist yet.
// Empty username or password disables it.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	ok, err := s.store.Exists(ctx, username)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	_, err = s.Create(ctx, "system", NewUser{
		Username: username,
		Name:     username,
		Password: password,
		Role:     string(models.RoleAdmin),
	})
	if errors.Is(err, credstore.ErrUserExists) {
		return nil
	}
	if err != nil {
		return err
	}
	s.log.Info(ctx, "bootstrap admin created", "username", username)
	return nil
}

// A failed activity write does not undo an action that already happened.
func (s *Service) record(ctx context.Context, actor, action string) {
	if err := s.activity.Record(ctx, actor, action); err != nil {
		s.log.Error(ctx, "cannot write activity log", "action", action, "error", err)
	}
}
