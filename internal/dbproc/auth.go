package dbproc

import (
	"context"
	"database/sql"
	"errors"
)

// LookupActor fetches the credential row sp_auth_login's caller needs
// before it can call the procedure at all: Argon2id verification happens
// in Go, so the stored password hash must be read out first. Identifier
// matches email or username.
func (c *Client) LookupActor(ctx context.Context, identifier string) (*ActorRow, error) {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	row := c.db.QueryRowContext(ctx, `
		SELECT id, email, username, display_name, password_hash, disabled_at
		FROM rustygpt.users
		WHERE email = $1 OR username = $1
	`, identifier)

	var a ActorRow
	if err := row.Scan(&a.ID, &a.Email, &a.Username, &a.DisplayName, &a.PasswordHash, &a.DisabledAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &Error{Code: CodeNotFound, Message: "RGP.404: no such user"}
		}
		return nil, mapProcError(err)
	}
	return &a, nil
}

// LoadRoles fetches a user's current roles, used both to stamp a new
// session's roles_snapshot and to detect a snapshot mismatch on validate.
func (c *Client) LoadRoles(ctx context.Context, userID string) ([]string, error) {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, `SELECT role FROM rustygpt.user_roles WHERE user_id = $1`, userID)
	if err != nil {
		return nil, mapProcError(err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, mapProcError(err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, mapProcError(err)
	}
	if len(roles) == 0 {
		roles = []string{"member"}
	}
	return roles, nil
}

// IssueSession calls sp_auth_login, which inserts the new session row,
// evicts sessions beyond the per-user cap, and returns the issued
// session's identity and lifetime in one transaction. The token itself
// never reaches the database - only its SHA-256 hash does.
func (c *Client) IssueSession(ctx context.Context, userID, tokenHash string, meta ClientMeta, clientMetaJSON []byte, roles []string, idleSeconds, absoluteSeconds int, maxSessionsPerUser *int) (*SessionRow, error) {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	row := c.db.QueryRowContext(ctx, `
		SELECT session_id, issued_at, expires_at, absolute_expires_at
		FROM rustygpt.sp_auth_login($1, $2, $3, $4, $5, $6::text[], $7, $8, $9)
	`, userID, tokenHash, nullableString(meta.UserAgent), nullableString(meta.IP), clientMetaJSON,
		pqStringArrayIn(roles), idleSeconds, absoluteSeconds, maxSessionsPerUser)

	var s SessionRow
	if err := row.Scan(&s.ID, &s.IssuedAt, &s.IdleExpiresAt, &s.AbsoluteExpiresAt); err != nil {
		return nil, mapProcError(err)
	}
	s.UserID = userID
	s.TokenHash = tokenHash
	s.RolesSnapshot = roles
	s.LastSeenAt = s.IssuedAt
	return &s, nil
}

// ActiveSessionByTokenHash is the row-locking read validate() needs: the
// session joined with its owning user, locked FOR UPDATE so a concurrent
// validate on the same token can't race the rotation decision. Callers
// must run this inside a transaction and commit or roll it back.
func (c *Client) ActiveSessionByTokenHash(ctx context.Context, tx *sql.Tx, tokenHash string) (*SessionRow, *ActorRow, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT s.id, s.user_id, s.issued_at, s.idle_expires_at, s.absolute_expires_at,
		       s.requires_rotation, s.roles_snapshot,
		       u.email, u.username, u.display_name, u.disabled_at
		FROM rustygpt.user_sessions s
		JOIN rustygpt.users u ON u.id = s.user_id
		WHERE s.token_hash = $1 AND s.revoked_at IS NULL
		FOR UPDATE OF s
	`, tokenHash)

	var s SessionRow
	var a ActorRow
	if err := row.Scan(&s.ID, &s.UserID, &s.IssuedAt, &s.IdleExpiresAt, &s.AbsoluteExpiresAt,
		&s.RequiresRotation, pqStringArray(&s.RolesSnapshot),
		&a.Email, &a.Username, &a.DisplayName, &a.DisabledAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, &Error{Code: CodeNotFound, Message: "RGP.404: no such session"}
		}
		return nil, nil, mapProcError(err)
	}
	a.ID = s.UserID
	return &s, &a, nil
}

// BeginTx starts a transaction for a validate/rotate sequence driven
// through ActiveSessionByTokenHash.
func (c *Client) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return c.db.BeginTx(ctx, nil)
}

// RotateSessionTx calls sp_auth_refresh within an already-open
// transaction, replacing sessionID with a freshly issued one carrying the
// caller's current roles. Raises RGP.403 if the session's owning user no
// longer matches, which callers surface as a forced logout.
func (c *Client) RotateSessionTx(ctx context.Context, tx *sql.Tx, sessionID, tokenHash string, meta ClientMeta, clientMetaJSON []byte, roles []string, idleSeconds int) (*SessionRow, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT next_session_id, user_id, issued_at, expires_at, absolute_expires_at
		FROM rustygpt.sp_auth_refresh($1, $2, $3, $4, $5, $6::text[], $7)
	`, sessionID, tokenHash, nullableString(meta.UserAgent), nullableString(meta.IP), clientMetaJSON,
		pqStringArrayIn(roles), idleSeconds)

	var s SessionRow
	if err := row.Scan(&s.ID, &s.UserID, &s.IssuedAt, &s.IdleExpiresAt, &s.AbsoluteExpiresAt); err != nil {
		return nil, mapProcError(err)
	}
	s.TokenHash = tokenHash
	s.RolesSnapshot = roles
	s.LastSeenAt = s.IssuedAt
	return &s, nil
}

// TouchSessionTx updates last_seen_at and client fingerprint metadata for
// a session that validated without needing rotation.
func (c *Client) TouchSessionTx(ctx context.Context, tx *sql.Tx, sessionID string, meta ClientMeta, clientMetaJSON []byte) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE rustygpt.user_sessions
		SET last_seen_at = now(),
		    user_agent = COALESCE($2, user_agent),
		    ip = COALESCE($3, ip),
		    client_meta = $4
		WHERE id = $1
	`, sessionID, nullableString(meta.UserAgent), nullableString(meta.IP), clientMetaJSON)
	return mapProcError(err)
}

// RevokeSessionTx calls sp_auth_logout within an already-open
// transaction - used when validate discovers a disabled user or an
// expired session and must close it out before reporting failure.
func (c *Client) RevokeSessionTx(ctx context.Context, tx *sql.Tx, sessionID, reason string) error {
	_, err := tx.ExecContext(ctx, `CALL rustygpt.sp_auth_logout($1, $2)`, sessionID, reason)
	return mapProcError(err)
}

// RevokeSession calls sp_auth_logout outside of any caller-managed
// transaction - the explicit logout endpoint's path.
func (c *Client) RevokeSession(ctx context.Context, sessionID, reason string) error {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	_, err := c.db.ExecContext(ctx, `CALL rustygpt.sp_auth_logout($1, $2)`, sessionID, reason)
	return mapProcError(err)
}

// MarkUserForRotation calls sp_auth_mark_rotation, flagging every active
// session owned by userID so the next validate forces a fresh snapshot -
// used after a role change. Returns the number of sessions flagged.
func (c *Client) MarkUserForRotation(ctx context.Context, userID, reason string) (int64, error) {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	var updated int64
	row := c.db.QueryRowContext(ctx, `SELECT rustygpt.sp_auth_mark_rotation($1, $2)`, userID, reason)
	if err := row.Scan(&updated); err != nil {
		return 0, mapProcError(err)
	}
	return updated, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
