package authsession

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/vannadii/rustygpt-go/internal/config"
	"github.com/vannadii/rustygpt-go/internal/dbproc"
)

// Authority is the database-backed session manager: it owns every write
// to rustygpt.users and rustygpt.user_sessions that authentication needs,
// routed entirely through dbproc's sp_auth_* wrappers.
type Authority struct {
	db  *dbproc.Client
	cfg *config.Config
}

// New builds an Authority over an open database client and the server's
// resolved configuration.
func New(db *dbproc.Client, cfg *config.Config) *Authority {
	return &Authority{db: db, cfg: cfg}
}

func (a *Authority) rotationThreshold() time.Duration {
	idle := a.cfg.Session.IdleSeconds
	if idle < 1 {
		idle = 1
	}
	threshold := idle / 2
	if threshold < 1 {
		threshold = 1
	}
	return time.Duration(threshold) * time.Second
}

func (a *Authority) maxSessionsPerUser() *int {
	if a.cfg.Session.MaxSessionsPerUser <= 0 {
		return nil
	}
	n := a.cfg.Session.MaxSessionsPerUser
	return &n
}

func metaJSON(m Metadata) []byte {
	b, _ := json.Marshal(map[string]string{
		"user_agent":  m.UserAgent,
		"ip":          m.IP,
		"fingerprint": m.Fingerprint,
	})
	return b
}

// Authenticate verifies identifier/password against the stored
// credential and, on success, issues a new session bound to the
// caller's current roles.
func (a *Authority) Authenticate(ctx context.Context, identifier, password string, meta Metadata) (User, Bundle, error) {
	actor, err := a.db.LookupActor(ctx, identifier)
	if err != nil {
		if errors.Is(err, dbproc.ErrNotFound) {
			return User{}, Bundle{}, ErrInvalidCredentials
		}
		return User{}, Bundle{}, err
	}
	if actor.DisabledAt != nil {
		return User{}, Bundle{}, ErrDisabledUser
	}
	if err := VerifyPassword(actor.PasswordHash, password); err != nil {
		return User{}, Bundle{}, ErrInvalidCredentials
	}

	roles, err := a.db.LoadRoles(ctx, actor.ID)
	if err != nil {
		return User{}, Bundle{}, err
	}

	bundle, err := a.issueBundle(ctx, actor.ID, roles, meta)
	if err != nil {
		return User{}, Bundle{}, err
	}

	user := User{ID: actor.ID, Email: actor.Email, Username: actor.Username, DisplayName: actor.DisplayName, Roles: roles}
	return user, bundle, nil
}

func (a *Authority) issueBundle(ctx context.Context, userID string, roles []string, meta Metadata) (Bundle, error) {
	token, err := newSessionToken()
	if err != nil {
		return Bundle{}, err
	}
	csrf, err := newCSRFToken()
	if err != nil {
		return Bundle{}, err
	}

	row, err := a.db.IssueSession(ctx, userID, hashToken(token),
		dbproc.ClientMeta{UserAgent: meta.UserAgent, IP: meta.IP, Fingerprint: meta.Fingerprint},
		metaJSON(meta), roles, int(a.cfg.Session.IdleSeconds), int(a.cfg.Session.AbsoluteSeconds), a.maxSessionsPerUser())
	if err != nil {
		return Bundle{}, err
	}

	return Bundle{
		Token:     token,
		CSRFToken: csrf,
		Session: Session{
			ID:                row.ID,
			IssuedAt:          row.IssuedAt,
			IdleExpiresAt:     row.IdleExpiresAt,
			AbsoluteExpiresAt: row.AbsoluteExpiresAt,
		},
	}, nil
}

// Validate checks an inbound session token, rotating it if its idle
// window is within the rotation threshold, its roles snapshot is stale,
// or the session was explicitly flagged for rotation. A disabled
// account, an idle-expired session, or an absolute-expired session all
// revoke the session and report failure rather than rotating it.
func (a *Authority) Validate(ctx context.Context, token string, meta Metadata) (*Validation, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	tx, err := a.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	session, actor, err := a.db.ActiveSessionByTokenHash(ctx, tx, hashToken(token))
	if err != nil {
		if errors.Is(err, dbproc.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if actor.DisabledAt != nil {
		_ = a.db.RevokeSessionTx(ctx, tx, session.ID, "disabled")
		_ = tx.Commit()
		return nil, ErrDisabledUser
	}

	now := time.Now()
	if !session.IdleExpiresAt.After(now) {
		_ = a.db.RevokeSessionTx(ctx, tx, session.ID, "idle_expired")
		_ = tx.Commit()
		return nil, ErrSessionExpired
	}
	if !session.AbsoluteExpiresAt.After(now) {
		_ = a.db.RevokeSessionTx(ctx, tx, session.ID, "absolute_expired")
		_ = tx.Commit()
		return nil, ErrAbsoluteExpired
	}

	roles, err := a.db.LoadRoles(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	snapshotStale := !stringSlicesEqual(roles, session.RolesSnapshot)
	needsRotation := session.RequiresRotation || snapshotStale || session.IdleExpiresAt.Sub(now) <= a.rotationThreshold()

	var bundle *Bundle
	rotated := false

	if needsRotation {
		newBundle, newSession, rotatedErr := a.rotateWithinTx(ctx, tx, session.ID, roles, meta)
		if rotatedErr != nil {
			return nil, rotatedErr
		}
		bundle = newBundle
		session = &newSession
		rotated = true
	} else {
		if err := a.db.TouchSessionTx(ctx, tx, session.ID, dbproc.ClientMeta{UserAgent: meta.UserAgent, IP: meta.IP}, metaJSON(meta)); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	user := User{ID: actor.ID, Email: actor.Email, Username: actor.Username, DisplayName: actor.DisplayName, Roles: roles}
	return &Validation{
		User: user,
		Session: Session{
			ID:                session.ID,
			IssuedAt:          session.IssuedAt,
			IdleExpiresAt:     session.IdleExpiresAt,
			AbsoluteExpiresAt: session.AbsoluteExpiresAt,
		},
		Bundle:  bundle,
		Rotated: rotated,
	}, nil
}

// Refresh is Validate with rotation forced regardless of remaining idle
// lifetime - the explicit POST /auth/refresh path, as opposed to the
// implicit rotation Validate performs on every request.
func (a *Authority) Refresh(ctx context.Context, token string, meta Metadata) (*Validation, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	tx, err := a.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	session, actor, err := a.db.ActiveSessionByTokenHash(ctx, tx, hashToken(token))
	if err != nil {
		if errors.Is(err, dbproc.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if actor.DisabledAt != nil {
		_ = a.db.RevokeSessionTx(ctx, tx, session.ID, "disabled")
		_ = tx.Commit()
		return nil, ErrDisabledUser
	}

	now := time.Now()
	if !session.IdleExpiresAt.After(now) {
		_ = a.db.RevokeSessionTx(ctx, tx, session.ID, "idle_expired")
		_ = tx.Commit()
		return nil, ErrSessionExpired
	}
	if !session.AbsoluteExpiresAt.After(now) {
		_ = a.db.RevokeSessionTx(ctx, tx, session.ID, "absolute_expired")
		_ = tx.Commit()
		return nil, ErrAbsoluteExpired
	}

	roles, err := a.db.LoadRoles(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	bundle, newSession, err := a.rotateWithinTx(ctx, tx, session.ID, roles, meta)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	user := User{ID: actor.ID, Email: actor.Email, Username: actor.Username, DisplayName: actor.DisplayName, Roles: roles}
	return &Validation{
		User: user,
		Session: Session{
			ID:                newSession.ID,
			IssuedAt:          newSession.IssuedAt,
			IdleExpiresAt:     newSession.IdleExpiresAt,
			AbsoluteExpiresAt: newSession.AbsoluteExpiresAt,
		},
		Bundle:  bundle,
		Rotated: true,
	}, nil
}

// rotateWithinTx issues a replacement session inside the caller's open
// transaction, returning the new bundle and a dbproc.SessionRow standing
// in for the rotated session's identity/lifetime fields.
func (a *Authority) rotateWithinTx(ctx context.Context, tx *sql.Tx, sessionID string, roles []string, meta Metadata) (*Bundle, dbproc.SessionRow, error) {
	token, err := newSessionToken()
	if err != nil {
		return nil, dbproc.SessionRow{}, err
	}
	csrf, err := newCSRFToken()
	if err != nil {
		return nil, dbproc.SessionRow{}, err
	}

	row, err := a.db.RotateSessionTx(ctx, tx, sessionID, hashToken(token),
		dbproc.ClientMeta{UserAgent: meta.UserAgent, IP: meta.IP, Fingerprint: meta.Fingerprint},
		metaJSON(meta), roles, int(a.cfg.Session.IdleSeconds))
	if err != nil {
		return nil, dbproc.SessionRow{}, err
	}

	bundle := &Bundle{
		Token:     token,
		CSRFToken: csrf,
		Session: Session{
			ID:                row.ID,
			IssuedAt:          row.IssuedAt,
			IdleExpiresAt:     row.IdleExpiresAt,
			AbsoluteExpiresAt: row.AbsoluteExpiresAt,
		},
	}
	return bundle, *row, nil
}

// Logout revokes the session backing token, if any. A missing or
// already-revoked token is not an error - logout is idempotent.
func (a *Authority) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	tx, err := a.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	session, _, err := a.db.ActiveSessionByTokenHash(ctx, tx, hashToken(token))
	if err != nil {
		if errors.Is(err, dbproc.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := a.db.RevokeSessionTx(ctx, tx, session.ID, "logout"); err != nil {
		return err
	}
	return tx.Commit()
}

// MarkForRotation flags every active session owned by userID so the next
// validate forces a fresh snapshot - called after a role change.
func (a *Authority) MarkForRotation(ctx context.Context, userID, reason string) error {
	_, err := a.db.MarkUserForRotation(ctx, userID, reason)
	return err
}

// CheckCSRF enforces the double-submit pattern: the header value and the
// CSRF cookie value must match exactly.
func CheckCSRF(headerValue, cookieValue string) error {
	if cookieValue == "" || headerValue == "" {
		return ErrMissingCSRFToken
	}
	if !constantTimeEqual(headerValue, cookieValue) {
		return ErrCSRFMismatch
	}
	return nil
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, v := range a {
		seen[v]++
	}
	for _, v := range b {
		seen[v]--
	}
	for _, n := range seen {
		if n != 0 {
			return false
		}
	}
	return true
}
