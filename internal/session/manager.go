package session

import (
	"context"
	"net/http"
)

// Manager binds Store sessions to an HTTP cookie that carries only the id.
type Manager struct {
	store      *Store
	cookieName string
	secure     bool
}

func NewManager(store *Store, cookieName string, secure bool) *Manager {
	if cookieName == "" {
		cookieName = "thumblify.sid"
	}
	return &Manager{store: store, cookieName: cookieName, secure: secure}
}

// Start logs userID in. Any session the request already carries is
// destroyed so the id changes on every login.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, r *http.Request, userID string) error {
	if old := m.sessionID(r); old != "" {
		if err := m.store.Destroy(ctx, old); err != nil {
			return err
		}
	}
	sid, err := m.store.Create(ctx, Data{IsLoggedIn: true, UserID: userID})
	if err != nil {
		return err
	}
	m.setCookie(w, sid)
	return nil
}

// Load returns the logged-in session for r, or nil if there is none. The
// store already slid the TTL, so the cookie is reissued to expire with it.
func (m *Manager) Load(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Data, error) {
	sid := m.sessionID(r)
	data, err := m.store.Get(ctx, sid)
	if err != nil || data == nil {
		return nil, err
	}
	if !data.IsLoggedIn || data.UserID == "" {
		return nil, nil
	}
	m.setCookie(w, sid)
	return data, nil
}

// End destroys the session and clears the cookie.
func (m *Manager) End(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := m.store.Destroy(ctx, m.sessionID(r)); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite(),
	})
	return nil
}

func (m *Manager) setCookie(w http.ResponseWriter, sid string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(m.store.TTL().Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite(),
	})
}

func (m *Manager) sessionID(r *http.Request) string {
	c, err := r.Cookie(m.cookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// sameSite is None on secure cookies so a client served from another site
// still sends them; browsers reject None without Secure.
func (m *Manager) sameSite() http.SameSite {
	if m.secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

type ctxKey struct{}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}
