// internal/session/session.go
//
// Database-backed login sessions.
//
// Context
// -------
// A successful login creates a row in the internal `sessions` table keyed
// by a random UUID token.  The token travels in an HttpOnly cookie; the
// row maps it to a user id and an expiry.  Every request resolves the
// cookie once in Middleware and stores the resulting auth.Identity in the
// request context.  Handlers never read the cookie themselves.
//
// Notes
// -----
// • Expired rows are deleted on lookup; there is no background sweeper.
// • Expiry is stored as RFC 3339 UTC text so MySQL and SQLite compare it
//   the same way.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/yanizio/bistro/internal/auth"
	"github.com/yanizio/bistro/internal/metrics"
)

var (
	// ErrBadCredentials: unknown email or wrong password.
	ErrBadCredentials = errors.New("invalid email or password")
	// ErrNoSession: token unknown or expired.
	ErrNoSession = errors.New("no session")
)

// DefaultLifetime applies when the configured lifetime is zero.
const DefaultLifetime = 2 * time.Hour

// Session is one row of the sessions table.
type Session struct {
	Token   string
	UserID  int64
	Expires time.Time
}

// Store persists sessions and verifies credentials.
type Store struct {
	db       *sqlx.DB
	lifetime time.Duration
	now      func() time.Time
}

// NewStore returns a Store issuing sessions valid for lifetime.
func NewStore(db *sqlx.DB, lifetime time.Duration) *Store {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	return &Store{db: db, lifetime: lifetime, now: time.Now}
}

// Lifetime is how long new sessions stay valid.
func (s *Store) Lifetime() time.Duration { return s.lifetime }

const selectIdentity = "SELECT `id`, `email`, COALESCE(`firstName`, '') AS `firstName`, " +
	"COALESCE(`lastName`, '') AS `lastName`, `role` FROM `users` WHERE `id` = ?"

// Authenticate checks email and password against users and returns the
// identity.  Unknown email and wrong password are indistinguishable.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*auth.Identity, error) {
	var row struct {
		auth.Identity
		Password string `db:"password"`
	}
	err := s.db.GetContext(ctx, &row, s.db.Rebind(
		"SELECT `id`, `email`, COALESCE(`firstName`, '') AS `firstName`, "+
			"COALESCE(`lastName`, '') AS `lastName`, `role`, `password` "+
			"FROM `users` WHERE LOWER(`email`) = ?"), strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(row.Password), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	id := row.Identity
	return &id, nil
}

// Create opens a session for userID.
func (s *Store) Create(ctx context.Context, userID int64) (*Session, error) {
	sess := &Session{
		Token:   uuid.NewString(),
		UserID:  userID,
		Expires: s.now().UTC().Add(s.lifetime).Truncate(time.Second),
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(
		"INSERT INTO `sessions` (`token`, `userId`, `expires`) VALUES (?, ?, ?)"),
		sess.Token, sess.UserID, sess.Expires.Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	metrics.SessionsCreated.Inc()
	return sess, nil
}

// Lookup resolves token to the logged-in identity.  Expired sessions are
// removed and reported as ErrNoSession.
func (s *Store) Lookup(ctx context.Context, token string) (*auth.Identity, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, ErrNoSession
	}

	var row struct {
		UserID  int64  `db:"userId"`
		Expires string `db:"expires"`
	}
	err := s.db.GetContext(ctx, &row, s.db.Rebind(
		"SELECT `userId`, `expires` FROM `sessions` WHERE `token` = ?"), token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	exp, err := time.Parse(time.RFC3339, row.Expires)
	if err != nil || !s.now().Before(exp) {
		_ = s.Destroy(ctx, token)
		return nil, ErrNoSession
	}

	var id auth.Identity
	err = s.db.GetContext(ctx, &id, s.db.Rebind(selectIdentity), row.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		_ = s.Destroy(ctx, token)
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return &id, nil
}

// Destroy deletes the session for token.  Unknown tokens are not an error.
func (s *Store) Destroy(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(
		"DELETE FROM `sessions` WHERE `token` = ?"), token); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}
