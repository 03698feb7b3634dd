package auth

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"librarium/internal/config"
	"librarium/internal/entities"
)

// Session data keys
const (
	SessionKeyBorrowerID = "borrower_id"
	SessionKeyEmail      = "email"
)

// SessionManager wraps scs.SessionManager with borrower-specific methods.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates a configured session manager backed by the main
// SQLite database. The sqlDB parameter should be the underlying *sql.DB
// from GORM.
func NewSessionManager(sqlDB *sql.DB, cfg config.Auth) (*SessionManager, error) {
	// Create sessions table if it doesn't exist
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(sqlDB)

	sm.Lifetime = cfg.SessionLifetime
	sm.IdleTimeout = cfg.SessionLifetime / 2

	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteStrictMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// CreateSession creates a new session for a borrower after successful
// password verification.
func (sm *SessionManager) CreateSession(r *http.Request, borrower *entities.Borrower) error {
	// Renew token to prevent session fixation
	if err := sm.RenewToken(r.Context()); err != nil {
		return err
	}

	sm.Put(r.Context(), SessionKeyBorrowerID, borrower.ID)
	sm.Put(r.Context(), SessionKeyEmail, borrower.Email)

	return nil
}

// DestroySession removes all session data and invalidates the session.
func (sm *SessionManager) DestroySession(r *http.Request) error {
	return sm.Destroy(r.Context())
}

// GetBorrowerID retrieves the borrower ID from the session. Returns the
// empty string when the request carries no valid session.
func (sm *SessionManager) GetBorrowerID(r *http.Request) string {
	return sm.GetString(r.Context(), SessionKeyBorrowerID)
}

// IsAuthenticated returns true if the request has a valid session.
func (sm *SessionManager) IsAuthenticated(r *http.Request) bool {
	return sm.GetBorrowerID(r) != ""
}

// SessionData holds the session information for a request.
type SessionData struct {
	BorrowerID string
	Email      string
	ExpiresAt  time.Time
}

// GetSessionData retrieves all session data at once, or nil when the
// request is unauthenticated.
func (sm *SessionManager) GetSessionData(r *http.Request) *SessionData {
	borrowerID := sm.GetBorrowerID(r)
	if borrowerID == "" {
		return nil
	}
	return &SessionData{
		BorrowerID: borrowerID,
		Email:      sm.GetString(r.Context(), SessionKeyEmail),
		ExpiresAt:  sm.Deadline(r.Context()),
	}
}
