package account

import (
	"errors"
	"log"
	"net/http"
	"net/url"

	"fashion-ai-server/modules/common/apperr"
	"fashion-ai-server/modules/common/auth"
	"fashion-ai-server/modules/common/session"
)

// Handler - email/password auth endpoints backed by the identity
// provider. These are form posts answered with redirects; error text
// travels in the query string like the original pages expect.
type Handler struct {
	auth *auth.Client
}

func NewHandler(authClient *auth.Client) *Handler {
	return &Handler{auth: authClient}
}

// HandleLogin - POST /api/auth/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWithError(w, r, "/login", "登录失败，请稍后重试")
		return
	}

	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	redirectTo := r.PostFormValue("redirect")
	if redirectTo == "" || redirectTo[0] != '/' {
		redirectTo = "/"
	}

	sess, err := h.auth.SignInWithPassword(r.Context(), email, password)
	if err != nil {
		redirectWithError(w, r, "/login", errorText(err, "登录失败，请稍后重试"))
		return
	}

	session.SetCookies(w, sess)
	http.Redirect(w, r, redirectTo, http.StatusFound)
}

// HandleSignup - POST /api/auth/signup
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWithError(w, r, "/signup", "注册失败，请稍后重试")
		return
	}

	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	if _, err := h.auth.SignUp(r.Context(), email, password); err != nil {
		redirectWithError(w, r, "/signup", errorText(err, "注册失败，请稍后重试"))
		return
	}

	target := "/signup?message=" + url.QueryEscape("注册成功！请查收邮箱中的确认链接")
	http.Redirect(w, r, target, http.StatusFound)
}

// HandleLogout - POST /api/auth/logout
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(session.AccessTokenCookie); err == nil && cookie.Value != "" {
		if err := h.auth.SignOut(r.Context(), cookie.Value); err != nil {
			log.Printf("⚠️  [Account] Sign out error: %v", err)
		}
	}

	session.ClearCookies(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func redirectWithError(w http.ResponseWriter, r *http.Request, page, message string) {
	http.Redirect(w, r, page+"?error="+url.QueryEscape(message), http.StatusFound)
}

func errorText(err error, fallback string) string {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr.UserMessage
	}
	return fallback
}
