package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/Kauanrodrigues01/academy/internal/auth"
	"github.com/Kauanrodrigues01/academy/internal/store"
)

const SessionCookieName = "academy_session"

// RequireAuth validates the session cookie and populates StaffContext.
// Browsers are sent to /login; websocket upgrades get a plain 401 since
// they cannot follow a redirect. A stale cookie is cleared on the way.
func RequireAuth(sessionStore *store.SessionStore, staffStore *store.StaffStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w, r)
				return
			}

			sess, err := sessionStore.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				clearSession(w)
				unauthorized(w, r)
				return
			}

			st, err := staffStore.GetByID(sess.StaffID)
			if err != nil || st == nil {
				clearSession(w)
				unauthorized(w, r)
				return
			}

			ctx := auth.WithStaff(r.Context(), auth.StaffContext{
				StaffID:   st.ID,
				Name:      st.Name,
				IsAdmin:   st.IsAdmin,
				SessionID: sess.ID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin checks that the signed-in staff member is an administrator.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			http.Error(w, "Acesso negado", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireBearer lets through requests carrying "Authorization: Bearer
// <token>". It is used for scrapers that have no session.
func RequireBearer(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="metrics"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
