package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/tally-backend/pkg/config"
)

func testConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "tally"}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testConfig()
	now := time.Now().UTC()

	token, err := MintAccessToken(cfg, now, 30*time.Minute, AccessTokenPayload{Subject: "clerk-7", Role: RoleClerk})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Subject != "clerk-7" {
		t.Fatalf("expected subject clerk-7, got %s", claims.Subject)
	}
	if claims.Role != RoleClerk {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatal("expected jti to be generated")
	}
}

func TestMintAccessTokenValidation(t *testing.T) {
	cfg := testConfig()
	now := time.Now()

	if _, err := MintAccessToken(config.JWTConfig{Issuer: "tally"}, now, time.Minute, AccessTokenPayload{Subject: "a", Role: RoleClerk}); err == nil {
		t.Fatal("expected missing secret to fail")
	}
	if _, err := MintAccessToken(cfg, now, 0, AccessTokenPayload{Subject: "a", Role: RoleClerk}); err == nil {
		t.Fatal("expected non-positive ttl to fail")
	}
	if _, err := MintAccessToken(cfg, now, time.Minute, AccessTokenPayload{Role: RoleClerk}); err == nil {
		t.Fatal("expected missing subject to fail")
	}
	if _, err := MintAccessToken(cfg, now, time.Minute, AccessTokenPayload{Subject: "a", Role: "owner"}); err == nil {
		t.Fatal("expected unknown role to fail")
	}
}

func TestParseAccessTokenRejectsBadTokens(t *testing.T) {
	cfg := testConfig()
	now := time.Now().UTC()

	expired, err := MintAccessToken(cfg, now.Add(-2*time.Hour), time.Hour, AccessTokenPayload{Subject: "a", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("mint expired token: %v", err)
	}
	if _, err := ParseAccessToken(cfg, expired); err == nil {
		t.Fatal("expected expired token to fail")
	}

	valid, err := MintAccessToken(cfg, now, time.Hour, AccessTokenPayload{Subject: "a", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	if _, err := ParseAccessToken(config.JWTConfig{Secret: "other", Issuer: "tally"}, valid); err == nil {
		t.Fatal("expected wrong secret to fail")
	}
	if _, err := ParseAccessToken(config.JWTConfig{Secret: "secret", Issuer: "someone-else"}, valid); err == nil {
		t.Fatal("expected wrong issuer to fail")
	}

	tampered := valid[:strings.LastIndex(valid, ".")] + ".invalid"
	if _, err := ParseAccessToken(cfg, tampered); err == nil {
		t.Fatal("expected tampered signature to fail")
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, AccessTokenClaims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "a",
			Issuer:    "tally",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}
	if _, err := ParseAccessToken(cfg, unsigned); err == nil {
		t.Fatal("expected alg none to fail")
	}
}
