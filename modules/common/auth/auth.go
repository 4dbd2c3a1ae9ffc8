package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"fashion-ai-server/modules/common/apperr"
	"fashion-ai-server/modules/common/config"
)

// User - authenticated identity
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session - token pair issued by the identity provider
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         User   `json:"user"`
}

// Client - Supabase GoTrue adapter over its REST endpoints
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:    cfg.SupabaseURL + "/auth/v1",
		anonKey:    cfg.SupabaseAnonKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SignUp - register with email and password
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, apperr.NewMessage(apperr.TypeValidation, "请填写邮箱和密码")
	}
	if len(password) < 6 {
		return nil, apperr.NewMessage(apperr.TypeValidation, "密码至少需要6个字符")
	}

	body, providerErr, err := c.post(ctx, "/signup", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	if providerErr != "" {
		return nil, apperr.NewMessage(apperr.TypeAuth, mapSignUpError(providerErr))
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, apperr.Wrap(apperr.TypeAuth, err)
	}

	log.Printf("✅ [Auth] Signed up: %s", email)
	return &session, nil
}

// SignInWithPassword - password grant
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, apperr.NewMessage(apperr.TypeValidation, "请填写邮箱和密码")
	}

	body, providerErr, err := c.post(ctx, "/token?grant_type=password", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	if providerErr != "" {
		return nil, apperr.NewMessage(apperr.TypeAuth, mapSignInError(providerErr))
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, apperr.Wrap(apperr.TypeAuth, err)
	}

	log.Printf("✅ [Auth] Signed in: %s", email)
	return &session, nil
}

// RefreshSession - exchange a refresh token for a fresh token pair
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, apperr.New(apperr.TypeAuth)
	}

	body, providerErr, err := c.post(ctx, "/token?grant_type=refresh_token", "", map[string]string{
		"refresh_token": refreshToken,
	})
	if err != nil {
		return nil, err
	}
	if providerErr != "" {
		return nil, apperr.New(apperr.TypeAuth)
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, apperr.Wrap(apperr.TypeAuth, err)
	}

	return &session, nil
}

// GetUser - resolve the identity behind an access token
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	if accessToken == "" {
		return nil, apperr.New(apperr.TypeAuth)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/user", nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.TypeUnknown, err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.TypeNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.New(apperr.TypeAuth)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, apperr.Wrap(apperr.TypeAuth, err)
	}
	if user.ID == "" {
		return nil, apperr.New(apperr.TypeAuth)
	}

	return &user, nil
}

// SignOut - revoke the session behind an access token
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	_, _, err := c.post(ctx, "/logout", accessToken, map[string]string{})
	if err != nil {
		log.Printf("⚠️  [Auth] Sign out failed: %v", err)
	}
	return err
}

// post - issue a GoTrue request; provider errors come back as a message
// string so callers can map them to the user-facing taxonomy.
func (c *Client) post(ctx context.Context, path, bearer string, payload map[string]string) ([]byte, string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.TypeUnknown, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, "", apperr.Wrap(apperr.TypeUnknown, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.TypeNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.TypeNetwork, err)
	}

	if resp.StatusCode >= 400 {
		return nil, providerErrorMessage(respBody, resp.StatusCode), nil
	}

	return respBody, "", nil
}

// providerErrorMessage - pull the human message out of a GoTrue error body
func providerErrorMessage(body []byte, status int) string {
	var payload struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, candidate := range []string{payload.Msg, payload.Message, payload.ErrorDescription, payload.Error} {
			if candidate != "" {
				return candidate
			}
		}
	}
	return fmt.Sprintf("auth error: status %d", status)
}

func mapSignInError(providerMessage string) string {
	switch {
	case providerMessage == "Invalid login credentials":
		return "邮箱或密码错误"
	case strings.Contains(providerMessage, "Email not confirmed"):
		return "请先验证邮箱"
	default:
		return "登录失败，请稍后重试"
	}
}

func mapSignUpError(providerMessage string) string {
	switch {
	case strings.Contains(providerMessage, "already registered"):
		return "该邮箱已被注册"
	case strings.Contains(strings.ToLower(providerMessage), "invalid email"):
		return "请输入有效的邮箱地址"
	default:
		return "注册失败，请稍后重试"
	}
}
