package cloudstore

import (
	"context"
	"testing"

	"lyriclab-api-go/config"
)

func newLocalAuth() *AuthClient {
	return newAuthClient(config.Config{})
}

func TestAuthErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected string
	}{
		{
			name:     "User not found",
			code:     "auth/user-not-found",
			expected: "Kein Benutzer mit dieser E-Mail gefunden.",
		},
		{
			name:     "Wrong password",
			code:     "auth/wrong-password",
			expected: "Falsches Passwort.",
		},
		{
			name:     "Email in use",
			code:     "auth/email-already-in-use",
			expected: "Diese E-Mail-Adresse ist bereits registriert.",
		},
		{
			name:     "Unknown code falls back",
			code:     "auth/some-new-code",
			expected: "Ein Fehler ist aufgetreten. Bitte versuchen Sie es erneut.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AuthErrorMessage(tt.code); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestMapProviderCode(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"EMAIL_NOT_FOUND", "auth/user-not-found"},
		{"INVALID_PASSWORD", "auth/wrong-password"},
		{"EMAIL_EXISTS", "auth/email-already-in-use"},
		{"WEAK_PASSWORD : Password should be at least 6 characters", "auth/weak-password"},
		{"TOO_MANY_ATTEMPTS_TRY_LATER", "auth/too-many-requests"},
		{"SOMETHING_NEW", "auth/something-new"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := mapProviderCode(tt.raw); got != tt.expected {
				t.Errorf("Expected %q for %q, got %q", tt.expected, tt.raw, got)
			}
		})
	}
}

func TestDecodeAuthUser(t *testing.T) {
	signIn := map[string]any{
		"localId":     "uid-1",
		"email":       "user@example.com",
		"displayName": "User",
	}
	user, err := decodeAuthUser(signIn)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if user.UID != "uid-1" || user.Email != "user@example.com" {
		t.Errorf("Unexpected user from sign-in shape: %+v", user)
	}

	lookup := map[string]any{
		"users": []any{
			map[string]any{"localId": "uid-2", "email": "other@example.com", "emailVerified": true},
		},
	}
	user, err = decodeAuthUser(lookup)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if user.UID != "uid-2" || !user.EmailVerified {
		t.Errorf("Unexpected user from lookup shape: %+v", user)
	}

	if _, err := decodeAuthUser(map[string]any{"unexpected": true}); err == nil {
		t.Errorf("Expected error for unrecognized shape, got nil")
	}
	if _, err := decodeAuthUser(map[string]any{"users": []any{}}); err == nil {
		t.Errorf("Expected error for empty users list, got nil")
	}
}

func TestLocalSignUpAndSignIn(t *testing.T) {
	a := newLocalAuth()
	ctx := context.Background()

	user, err := a.SignUp(ctx, "singer@example.com", "secret123")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if user.Email != "singer@example.com" {
		t.Errorf("Expected email singer@example.com, got %s", user.Email)
	}
	if !a.CurrentUser().EmailVerified {
		t.Errorf("Expected embedded-mode signup to be verified immediately")
	}

	if err := a.SignOut(ctx); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if a.CurrentUser() != nil {
		t.Errorf("Expected no current user after sign out")
	}

	signedIn, err := a.SignIn(ctx, "singer@example.com", "secret123")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if signedIn.UID != user.UID {
		t.Errorf("Expected stable uid %s, got %s", user.UID, signedIn.UID)
	}
}

func TestLocalSignUpValidation(t *testing.T) {
	a := newLocalAuth()
	ctx := context.Background()

	if _, err := a.SignUp(ctx, "not-an-email", "secret123"); err == nil {
		t.Errorf("Expected invalid-email error, got nil")
	}
	if _, err := a.SignUp(ctx, "ok@example.com", "short"); err == nil {
		t.Errorf("Expected weak-password error, got nil")
	}

	a.SignUp(ctx, "taken@example.com", "secret123")
	_, err := a.SignUp(ctx, "taken@example.com", "secret456")
	authErr, ok := err.(*AuthError)
	if !ok {
		t.Fatalf("Expected *AuthError, got %T", err)
	}
	if authErr.Code != "auth/email-already-in-use" {
		t.Errorf("Expected email-already-in-use, got %s", authErr.Code)
	}
}

func TestLocalSignInErrors(t *testing.T) {
	a := newLocalAuth()
	ctx := context.Background()
	a.SignUp(ctx, "singer@example.com", "secret123")
	a.SignOut(ctx)

	_, err := a.SignIn(ctx, "unknown@example.com", "secret123")
	authErr, ok := err.(*AuthError)
	if !ok || authErr.Code != "auth/user-not-found" {
		t.Errorf("Expected user-not-found, got %v", err)
	}

	_, err = a.SignIn(ctx, "singer@example.com", "wrong")
	authErr, ok = err.(*AuthError)
	if !ok || authErr.Code != "auth/wrong-password" {
		t.Errorf("Expected wrong-password, got %v", err)
	}
	if authErr != nil && authErr.Error() != "Falsches Passwort." {
		t.Errorf("Expected localized message, got %q", authErr.Error())
	}
}

func TestLocalReloadUser(t *testing.T) {
	a := newLocalAuth()
	ctx := context.Background()

	if a.ReloadUser(ctx) {
		t.Errorf("Expected reload without a user to report not verified")
	}

	a.SignUp(ctx, "singer@example.com", "secret123")
	if !a.ReloadUser(ctx) {
		t.Errorf("Expected reload to report verified in embedded mode")
	}
}
