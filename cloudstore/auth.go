package cloudstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"lyriclab-api-go/config"
	"lyriclab-api-go/logcolors"
)

// AuthUser is the normalized shape of an authenticated user, independent of
// which identity backend produced it.
type AuthUser struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}

// AuthError carries the provider error code alongside the localized message.
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *AuthError) Error() string {
	return e.Message
}

// authErrorMessages maps provider error codes to human-readable messages.
// Unmapped codes fall back to a generic message.
var authErrorMessages = map[string]string{
	"auth/user-not-found":         "Kein Benutzer mit dieser E-Mail gefunden.",
	"auth/wrong-password":         "Falsches Passwort.",
	"auth/email-already-in-use":   "Diese E-Mail-Adresse ist bereits registriert.",
	"auth/weak-password":          "Das Passwort ist zu schwach. Mindestens 6 Zeichen erforderlich.",
	"auth/invalid-email":          "Ungültige E-Mail-Adresse.",
	"auth/too-many-requests":      "Zu viele Versuche. Bitte versuchen Sie es später erneut.",
	"auth/network-request-failed": "Netzwerkfehler. Bitte prüfen Sie Ihre Internetverbindung.",
	"auth/invalid-credential":     "Ungültige Anmeldedaten.",
	"auth/user-disabled":          "Dieser Account wurde deaktiviert.",
	"auth/email-not-verified":     "Bitte bestätigen Sie zuerst Ihre E-Mail-Adresse über den Link in der Bestätigungs-E-Mail.",
}

// AuthErrorMessage returns the localized message for a provider error code.
func AuthErrorMessage(code string) string {
	if msg, ok := authErrorMessages[code]; ok {
		return msg
	}
	return "Ein Fehler ist aufgetreten. Bitte versuchen Sie es erneut."
}

func authError(code string) *AuthError {
	return &AuthError{Code: code, Message: AuthErrorMessage(code)}
}

// providerCodes translates raw identity-provider error identifiers into the
// stable auth/* codes used by the message table.
var providerCodes = map[string]string{
	"EMAIL_NOT_FOUND":             "auth/user-not-found",
	"INVALID_PASSWORD":            "auth/wrong-password",
	"EMAIL_EXISTS":                "auth/email-already-in-use",
	"INVALID_EMAIL":               "auth/invalid-email",
	"TOO_MANY_ATTEMPTS_TRY_LATER": "auth/too-many-requests",
	"INVALID_LOGIN_CREDENTIALS":   "auth/invalid-credential",
	"USER_DISABLED":               "auth/user-disabled",
}

func mapProviderCode(raw string) string {
	// WEAK_PASSWORD arrives with a trailing explanation.
	if strings.HasPrefix(raw, "WEAK_PASSWORD") {
		return "auth/weak-password"
	}
	if code, ok := providerCodes[raw]; ok {
		return code
	}
	return "auth/" + strings.ToLower(strings.ReplaceAll(raw, "_", "-"))
}

// localAccount backs the embedded identity table used when no hosted
// identity provider is configured.
type localAccount struct {
	uid           string
	password      string
	displayName   string
	emailVerified bool
}

// AuthClient signs users in and out against the configured identity backend
// and tracks the current session. With an AUTH_BASE_URL it talks to the
// hosted identity provider; without one it keeps an in-process account
// table, where sending the verification mail immediately marks the account
// verified (there is no mail transport in embedded mode).
type AuthClient struct {
	baseURL string
	apiKey  string
	client  *http.Client

	mu       sync.RWMutex
	current  *AuthUser
	idToken  string
	accounts map[string]*localAccount
}

func newAuthClient(cfg config.Config) *AuthClient {
	return &AuthClient{
		baseURL:  strings.TrimSuffix(cfg.Configuration.AuthBaseURL, "/"),
		apiKey:   cfg.Configuration.AuthAPIKey,
		client:   &http.Client{Timeout: 15 * time.Second},
		accounts: make(map[string]*localAccount),
	}
}

func (a *AuthClient) local() bool {
	return a.baseURL == ""
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (a *AuthClient) CurrentUser() *AuthUser {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.current == nil {
		return nil
	}
	u := *a.current
	return &u
}

// SignIn authenticates with email and password and becomes the current
// session on success.
func (a *AuthClient) SignIn(ctx context.Context, email, password string) (*AuthUser, error) {
	if a.local() {
		return a.localSignIn(email, password)
	}

	body := map[string]any{"email": email, "password": password, "returnSecureToken": true}
	payload, token, err := a.post(ctx, "accounts:signInWithPassword", body)
	if err != nil {
		return nil, err
	}
	user, err := decodeAuthUser(payload)
	if err != nil {
		return nil, err
	}
	applyTokenClaims(user, token)
	a.setSession(user, token)
	return user, nil
}

// SignUp registers a new account, sends the verification mail and becomes
// the current session.
func (a *AuthClient) SignUp(ctx context.Context, email, password string) (*AuthUser, error) {
	if a.local() {
		return a.localSignUp(email, password)
	}

	body := map[string]any{"email": email, "password": password, "returnSecureToken": true}
	payload, token, err := a.post(ctx, "accounts:signUp", body)
	if err != nil {
		return nil, err
	}
	user, err := decodeAuthUser(payload)
	if err != nil {
		return nil, err
	}
	applyTokenClaims(user, token)
	a.setSession(user, token)

	if err := a.SendEmailVerification(ctx); err != nil {
		log.Warnf("%s Failed to send verification mail: %v", logcolors.LogAuth, err)
	}
	return user, nil
}

// SendEmailVerification asks the identity backend to mail a verification
// link to the current user.
func (a *AuthClient) SendEmailVerification(ctx context.Context) error {
	a.mu.RLock()
	current := a.current
	token := a.idToken
	a.mu.RUnlock()

	if current == nil {
		return authError("auth/user-not-found")
	}

	if a.local() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if acc, ok := a.accounts[current.Email]; ok {
			acc.emailVerified = true
		}
		return nil
	}

	_, _, err := a.post(ctx, "accounts:sendOobCode", map[string]any{
		"requestType": "VERIFY_EMAIL",
		"idToken":     token,
	})
	return err
}

// ReloadUser refreshes the current user from the backend and returns the
// fresh verification status. Failures are logged and reported as
// not-verified rather than propagated.
func (a *AuthClient) ReloadUser(ctx context.Context) bool {
	a.mu.RLock()
	current := a.current
	token := a.idToken
	a.mu.RUnlock()

	if current == nil {
		return false
	}

	if a.local() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if acc, ok := a.accounts[current.Email]; ok {
			a.current.EmailVerified = acc.emailVerified
			return acc.emailVerified
		}
		return false
	}

	payload, _, err := a.post(ctx, "accounts:lookup", map[string]any{"idToken": token})
	if err != nil {
		log.Warnf("%s Failed to reload user: %v", logcolors.LogAuth, err)
		return false
	}
	user, err := decodeAuthUser(payload)
	if err != nil {
		log.Warnf("%s Failed to reload user: %v", logcolors.LogAuth, err)
		return false
	}

	a.mu.Lock()
	a.current = user
	a.mu.Unlock()
	return user.EmailVerified
}

// IsEmailVerified reports the verification status of the current user.
func (a *AuthClient) IsEmailVerified() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current != nil && a.current.EmailVerified
}

// SignOut clears the current session.
func (a *AuthClient) SignOut(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = nil
	a.idToken = ""
	return nil
}

func (a *AuthClient) setSession(user *AuthUser, token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = user
	a.idToken = token
}

// post sends an identity request and returns the raw response payload plus
// the session token, translating provider errors into AuthErrors.
func (a *AuthClient) post(ctx context.Context, endpoint string, body map[string]any) (map[string]any, string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode auth request: %v", err)
	}

	url := a.baseURL + "/v1/" + endpoint
	if a.apiKey != "" {
		url += "?key=" + a.apiKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create auth request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, "", authError("auth/network-request-failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", authError("auth/network-request-failed")
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, "", fmt.Errorf("failed to parse auth response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		code := "auth/unknown-error"
		if errObj, ok := payload["error"].(map[string]any); ok {
			if msg, ok := errObj["message"].(string); ok {
				code = mapProviderCode(msg)
			}
		}
		return nil, "", authError(code)
	}

	token, _ := payload["idToken"].(string)
	return payload, token, nil
}

// decodeAuthUser normalizes the identity backend's two response shapes into
// one AuthUser: sign-in/sign-up responses carry the account at top level
// ("localId"), lookup responses wrap it in a "users" array. Anything else is
// rejected instead of probed for likely keys.
func decodeAuthUser(payload map[string]any) (*AuthUser, error) {
	switch {
	case payload["localId"] != nil:
		return authUserFromRecord(payload)
	case payload["users"] != nil:
		users, ok := payload["users"].([]any)
		if !ok || len(users) == 0 {
			return nil, fmt.Errorf("unrecognized auth response shape: empty users list")
		}
		record, ok := users[0].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("unrecognized auth response shape: malformed user record")
		}
		return authUserFromRecord(record)
	default:
		return nil, fmt.Errorf("unrecognized auth response shape")
	}
}

func authUserFromRecord(record map[string]any) (*AuthUser, error) {
	uid, _ := record["localId"].(string)
	if uid == "" {
		return nil, fmt.Errorf("unrecognized auth response shape: missing localId")
	}
	email, _ := record["email"].(string)
	displayName, _ := record["displayName"].(string)
	verified, _ := record["emailVerified"].(bool)
	return &AuthUser{
		UID:           uid,
		Email:         email,
		DisplayName:   displayName,
		EmailVerified: verified,
	}, nil
}

// applyTokenClaims fills in verification status from the session token's
// claims when the response payload omits it (sign-in responses do not carry
// emailVerified). The token is provider-signed; claims are read without
// local verification.
func applyTokenClaims(user *AuthUser, token string) {
	if token == "" || user.EmailVerified {
		return
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return
	}
	if verified, ok := claims["email_verified"].(bool); ok {
		user.EmailVerified = verified
	}
}

func (a *AuthClient) localSignIn(email, password string) (*AuthUser, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	acc, ok := a.accounts[email]
	if !ok {
		return nil, authError("auth/user-not-found")
	}
	if acc.password != password {
		return nil, authError("auth/wrong-password")
	}

	user := &AuthUser{
		UID:           acc.uid,
		Email:         email,
		DisplayName:   acc.displayName,
		EmailVerified: acc.emailVerified,
	}
	a.current = user
	return user, nil
}

func (a *AuthClient) localSignUp(email, password string) (*AuthUser, error) {
	if !strings.Contains(email, "@") {
		return nil, authError("auth/invalid-email")
	}
	if len(password) < 6 {
		return nil, authError("auth/weak-password")
	}

	a.mu.Lock()
	if _, exists := a.accounts[email]; exists {
		a.mu.Unlock()
		return nil, authError("auth/email-already-in-use")
	}
	acc := &localAccount{uid: uuid.NewString(), password: password}
	a.accounts[email] = acc
	user := &AuthUser{UID: acc.uid, Email: email}
	a.current = user
	a.mu.Unlock()

	// Embedded mode has no mail transport; verification completes
	// immediately.
	if err := a.SendEmailVerification(context.Background()); err != nil {
		log.Warnf("%s Failed to mark account verified: %v", logcolors.LogAuth, err)
	}
	a.mu.Lock()
	a.current.EmailVerified = true
	a.mu.Unlock()
	return a.CurrentUser(), nil
}
