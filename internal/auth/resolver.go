package auth

import (
	"context"
	"fmt"
	"strings"

	"tms-portal/internal/logging"
	"tms-portal/internal/models"
)

// Source is the read side of a credential store.
type Source interface {
	FetchAll(ctx context.Context) ([]RawRecord, error)
}

// Normalize turns raw store records into a Directory.
//
// Records without a username or secret are skipped, as are records flagged as
// hashed whose secret is not a bcrypt hash. Each skipped record yields one
// error wrapping ErrMalformedRecord; the remaining records are still
// normalized. Later records win over earlier ones with the same username.
func Normalize(raw []RawRecord, h *Hasher) (Directory, []error) {
	dir := make(Directory, len(raw))
	var skipped []error

	for i, rec := range raw {
		hash, err := credentialHash(rec, h)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("record %d (%q): %w", i, rec.Username, err))
			continue
		}
		dir[rec.Username] = UserRecord{
			Username:       rec.Username,
			DisplayName:    displayName(rec),
			CredentialHash: hash,
			Role:           models.ParseRole(strings.TrimSpace(rec.Role)),
		}
	}

	return dir, skipped
}

func credentialHash(rec RawRecord, h *Hasher) (string, error) {
	if err := checkRecord(rec); err != nil {
		return "", err
	}
	if rec.IsHashed {
		return rec.Secret, nil
	}
	hash, err := h.Hash(rec.Secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return hash, nil
}

func checkRecord(rec RawRecord) error {
	switch {
	case rec.Username == "":
		return fmt.Errorf("%w: empty username", ErrMalformedRecord)
	case rec.Secret == "":
		return fmt.Errorf("%w: empty password", ErrMalformedRecord)
	case rec.IsHashed && !IsHash(rec.Secret):
		return fmt.Errorf("%w: flagged as hashed but not a bcrypt hash", ErrMalformedRecord)
	}
	return nil
}

func displayName(rec RawRecord) string {
	if name := strings.TrimSpace(rec.Name); name != "" {
		return name
	}
	return rec.Username
}

// Authenticate checks username and secret against dir. Unknown users and
// wrong secrets both return an anonymous identity and ErrInvalidCredential
// after the same amount of bcrypt work.
func Authenticate(h *Hasher, dir Directory, username, secret string) (SessionIdentity, error) {
	rec, ok := dir[username]
	if !ok {
		h.burn(dir.typicalCost(h.Cost()), secret)
		return SessionIdentity{}, ErrInvalidCredential
	}
	if !h.Verify(rec.CredentialHash, secret) {
		return SessionIdentity{}, ErrInvalidCredential
	}
	return rec.identity(), nil
}

// Resolver reads the credential store on every call. Nothing is cached: the
// store may be edited concurrently by an admin.
type Resolver struct {
	src    Source
	hasher *Hasher
	log    logging.Logger
}

func NewResolver(src Source, h *Hasher, log logging.Logger) *Resolver {
	return &Resolver{src: src, hasher: h, log: log}
}

// Resolve fetches the raw records and normalizes them.
func (r *Resolver) Resolve(ctx context.Context) (Directory, error) {
	raw, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}
	dir, skipped := Normalize(raw, r.hasher)
	r.reportSkipped(ctx, skipped)
	return dir, nil
}

// Authenticate resolves the directory and checks the credentials.
func (r *Resolver) Authenticate(ctx context.Context, username, secret string) (SessionIdentity, error) {
	dir, err := r.Resolve(ctx)
	if err != nil {
		return SessionIdentity{}, err
	}
	return Authenticate(r.hasher, dir, username, secret)
}

// Lookup returns the current identity of an already authenticated user,
// re-read from the store. It applies the same skip rules as Normalize but
// does not hash anything, so it is cheap enough to run on every request.
func (r *Resolver) Lookup(ctx context.Context, username string) (SessionIdentity, error) {
	raw, err := r.fetch(ctx)
	if err != nil {
		return SessionIdentity{}, err
	}

	var (
		found UserRecord
		ok    bool
	)
	for _, rec := range raw {
		if rec.Username != username || checkRecord(rec) != nil {
			continue
		}
		found = UserRecord{
			Username:    rec.Username,
			DisplayName: displayName(rec),
			Role:        models.ParseRole(strings.TrimSpace(rec.Role)),
		}
		ok = true
	}
	if !ok {
		return SessionIdentity{}, ErrInvalidCredential
	}
	return found.identity(), nil
}

func (r *Resolver) fetch(ctx context.Context) ([]RawRecord, error) {
	raw, err := r.src.FetchAll(ctx)
	if err != nil {
		r.log.Error(ctx, "credential store unavailable", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return raw, nil
}

func (r *Resolver) reportSkipped(ctx context.Context, skipped []error) {
	for _, err := range skipped {
		r.log.Warn(ctx, "skipping credential record", "reason", err.Error())
	}
}
