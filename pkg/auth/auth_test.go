package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"roombook/pkg/model"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour)

	token, exp, err := m.Issue("user-1", model.RoleManager)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Errorf("expiry should be in the future, got %s", exp)
	}

	id, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if id.UserID != "user-1" || id.Role != model.RoleManager {
		t.Errorf("Verify() = %+v", id)
	}
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour)
	good, _, _ := m.Issue("user-1", model.RoleUser)

	expired := NewTokenManager(testSecret, time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, _ := expired.Issue("user-1", model.RoleUser)

	other := NewTokenManager("ffffffffffffffffffffffffffffffff", time.Hour)
	forged, _, _ := other.Issue("user-1", model.RoleAdmin)

	badRole := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: "root",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	badRoleToken, _ := badRole.SignedString([]byte(testSecret))

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-jwt"},
		{name: "expired", token: old},
		{name: "wrong secret", token: forged},
		{name: "unknown role", token: badRoleToken},
		{name: "truncated", token: good[:len(good)-4]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("hash must not equal plaintext")
	}
	if err := CheckPassword(hash, "correct horse"); err != nil {
		t.Errorf("CheckPassword() error = %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("CheckPassword() error = %v, want ErrPasswordMismatch", err)
	}
}

func TestIdentityContext(t *testing.T) {
	if _, ok := IdentityFrom(context.Background()); ok {
		t.Error("empty context should carry no identity")
	}

	ctx := WithIdentity(context.Background(), Identity{UserID: "u", Role: model.RoleAdmin})
	id, ok := IdentityFrom(ctx)
	if !ok || id.UserID != "u" {
		t.Fatalf("IdentityFrom() = %+v, %v", id, ok)
	}
	if !id.IsStaff() || !id.Has(model.RoleAdmin) || id.Has(model.RoleUser) {
		t.Errorf("role checks wrong for %+v", id)
	}
}
