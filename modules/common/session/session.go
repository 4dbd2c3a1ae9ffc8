package session

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"

	"fashion-ai-server/modules/common/auth"
)

// Cookie names for the Supabase token pair
const (
	AccessTokenCookie  = "sb-access-token"
	RefreshTokenCookie = "sb-refresh-token"
)

// Routes requiring a signed-in user. "/" matches exactly, the rest by
// prefix. Auth routes redirect the other way: a signed-in user is sent
// back to the home page.
var (
	protectedRoutes = []string{"/", "/generate"}
	authRoutes      = []string{"/login", "/signup"}
)

type contextKey struct{}

// Resolver - identity lookup plus token refresh
type Resolver interface {
	GetUser(ctx context.Context, accessToken string) (*auth.User, error)
	RefreshSession(ctx context.Context, refreshToken string) (*auth.Session, error)
}

// UserFrom - identity attached by the guard, nil when anonymous
func UserFrom(ctx context.Context) *auth.User {
	user, _ := ctx.Value(contextKey{}).(*auth.User)
	return user
}

// WithUser - attach an identity to a context (used by the guard and tests)
func WithUser(ctx context.Context, user *auth.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// Guard - session middleware. Every request except static assets gets
// its identity resolved from the session cookies, refreshing the token
// pair when the access token has expired. Unauthenticated requests to
// protected pages redirect to the login page with the original path as
// the return target; authenticated requests to auth pages redirect home.
func Guard(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			if isStaticAsset(path) {
				next.ServeHTTP(w, r)
				return
			}

			user := resolve(w, r, resolver)

			if user == nil && isProtectedRoute(path) {
				target := "/login?redirect=" + url.QueryEscape(path)
				http.Redirect(w, r, target, http.StatusFound)
				return
			}

			if user != nil && isAuthRoute(path) {
				http.Redirect(w, r, "/", http.StatusFound)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// resolve - current user from cookies; falls back to a refresh, which
// re-issues both cookies as a side effect.
func resolve(w http.ResponseWriter, r *http.Request, resolver Resolver) *auth.User {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		if user, err := resolver.GetUser(r.Context(), cookie.Value); err == nil {
			return user
		}
	}

	refreshCookie, err := r.Cookie(RefreshTokenCookie)
	if err != nil || refreshCookie.Value == "" {
		return nil
	}

	session, err := resolver.RefreshSession(r.Context(), refreshCookie.Value)
	if err != nil {
		log.Printf("⚠️  [Session] Refresh failed: %v", err)
		return nil
	}

	SetCookies(w, session)
	return &session.User
}

// SetCookies - store the token pair on the response
func SetCookies(w http.ResponseWriter, session *auth.Session) {
	maxAge := session.ExpiresIn
	if maxAge <= 0 {
		maxAge = 3600
	}

	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    session.AccessToken,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    session.RefreshToken,
		Path:     "/",
		MaxAge:   60 * 60 * 24 * 30,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookies - drop the token pair on sign-out
func ClearCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func isProtectedRoute(path string) bool {
	for _, route := range protectedRoutes {
		if path == route || strings.HasPrefix(path, route+"/") {
			return true
		}
	}
	return false
}

func isAuthRoute(path string) bool {
	for _, route := range authRoutes {
		if strings.HasPrefix(path, route) {
			return true
		}
	}
	return false
}

var staticExtensions = []string{".svg", ".png", ".jpg", ".jpeg", ".gif", ".webp", ".ico", ".css", ".js"}

func isStaticAsset(path string) bool {
	for _, ext := range staticExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
