package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestManager_RoundTrip(t *testing.T) {
	m, err := NewManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	token, expiresAt, err := m.GenerateUserToken("student-42")
	if err != nil {
		t.Fatalf("GenerateUserToken failed: %v", err)
	}
	if time.Until(expiresAt) <= 0 || time.Until(expiresAt) > time.Hour {
		t.Errorf("Unexpected expiry %v", expiresAt)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != "student-42" || claims.Role != "user" {
		t.Errorf("Unexpected claims: %+v", claims)
	}
}

func TestManager_RejectsBadTokens(t *testing.T) {
	m, _ := NewManager("test-secret", time.Hour)
	other, _ := NewManager("other-secret", time.Hour)

	foreign, _, err := other.GenerateUserToken("student-42")
	if err != nil {
		t.Fatalf("GenerateUserToken failed: %v", err)
	}

	expiredClaims := &JWTClaims{
		UserID: "student-42",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims).SignedString([]byte("test-secret"))

	noneAlg, _ := jwt.NewWithClaims(jwt.SigningMethodNone, &JWTClaims{UserID: "student-42"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", foreign},
		{"expired", expired},
		{"none algorithm", noneAlg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.ValidateToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestNewManager_RequiresSecret(t *testing.T) {
	if _, err := NewManager("", 0); err == nil {
		t.Error("Expected error for empty secret")
	}
	if _, _, err := (&Manager{secret: []byte("x"), ttl: time.Hour}).GenerateUserToken(""); err == nil {
		t.Error("Expected error for empty user id")
	}
}
