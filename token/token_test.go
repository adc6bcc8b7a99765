package token

import (
	"encoding/base64"
	"testing"
	"time"
)

// forge builds an unsigned compact token around the given payload JSON.
func forge(payload string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	body := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return header + "." + body + ".sig"
}

func TestDecode(t *testing.T) {
	t.Run("extracts subject, email and expiry", func(t *testing.T) {
		claims := Decode(forge(`{"sub":"42","email":"a@x.tn","iat":1700000000,"exp":1700003600}`))
		if claims == nil {
			t.Fatal("unexpected nil claims")
		}
		if claims.Subject != "42" {
			t.Errorf("subject = %q", claims.Subject)
		}
		if claims.Email != "a@x.tn" {
			t.Errorf("email = %q", claims.Email)
		}
		if !claims.ExpiresAt.Equal(time.Unix(1700003600, 0)) {
			t.Errorf("expiry = %v", claims.ExpiresAt)
		}
		if !claims.IssuedAt.Equal(time.Unix(1700000000, 0)) {
			t.Errorf("issued = %v", claims.IssuedAt)
		}
	})

	t.Run("flat string authority list", func(t *testing.T) {
		claims := Decode(forge(`{"sub":"1","authorities":["ROLE_AGENT_FINANCE"]}`))
		if claims == nil {
			t.Fatal("unexpected nil claims")
		}
		if len(claims.Roles) != 1 || claims.Roles[0] != "ROLE_AGENT_FINANCE" {
			t.Errorf("roles = %v", claims.Roles)
		}
	})

	t.Run("authority object list", func(t *testing.T) {
		claims := Decode(forge(`{"sub":"1","authorities":[{"authority":"RoleUtilisateur_SUPER_ADMIN"}]}`))
		if claims == nil {
			t.Fatal("unexpected nil claims")
		}
		if len(claims.Roles) != 1 || claims.Roles[0] != "RoleUtilisateur_SUPER_ADMIN" {
			t.Errorf("roles = %v", claims.Roles)
		}
	})

	t.Run("bare string role claim", func(t *testing.T) {
		claims := Decode(forge(`{"sub":"1","role":"AGENT_DOSSIER"}`))
		if claims == nil {
			t.Fatal("unexpected nil claims")
		}
		if len(claims.Roles) != 1 || claims.Roles[0] != "AGENT_DOSSIER" {
			t.Errorf("roles = %v", claims.Roles)
		}
	})

	t.Run("padded base64 segments decode too", func(t *testing.T) {
		body := base64.URLEncoding.EncodeToString([]byte(`{"sub":"7"}`))
		claims := Decode("h." + body + ".s")
		if claims == nil || claims.Subject != "7" {
			t.Fatalf("claims = %+v", claims)
		}
	})

	t.Run("malformed tokens yield nil", func(t *testing.T) {
		for name, tok := range map[string]string{
			"empty":          "",
			"two segments":   "a.b",
			"four segments":  "a.b.c.d",
			"invalid base64": "a.!!!.c",
			"invalid json":   "a." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".c",
		} {
			if claims := Decode(tok); claims != nil {
				t.Errorf("%s: expected nil, got %+v", name, claims)
			}
		}
	})
}

func TestValid(t *testing.T) {
	now := time.Unix(1700000000, 0)

	t.Run("nil claims are invalid", func(t *testing.T) {
		if Valid(nil, now) {
			t.Error("nil claims reported valid")
		}
	})

	t.Run("missing expiry fails closed", func(t *testing.T) {
		if Valid(&Claims{Subject: "1"}, now) {
			t.Error("token without exp reported valid")
		}
	})

	t.Run("expiry strictly in the future is valid", func(t *testing.T) {
		if !Valid(&Claims{ExpiresAt: now.Add(time.Second)}, now) {
			t.Error("future expiry reported invalid")
		}
	})

	t.Run("expiry at or before now is invalid", func(t *testing.T) {
		if Valid(&Claims{ExpiresAt: now}, now) {
			t.Error("exp == now must be invalid")
		}
		if Valid(&Claims{ExpiresAt: now.Add(-time.Hour)}, now) {
			t.Error("past expiry reported valid")
		}
	})
}

func TestTTL(t *testing.T) {
	now := time.Unix(1700000000, 0)

	if got := TTL(&Claims{ExpiresAt: now.Add(time.Minute)}, now); got != time.Minute {
		t.Errorf("TTL = %v, want 1m", got)
	}
	if got := TTL(&Claims{ExpiresAt: now.Add(-time.Minute)}, now); got != 0 {
		t.Errorf("TTL of expired token = %v, want 0", got)
	}
	if got := TTL(nil, now); got != 0 {
		t.Errorf("TTL of nil claims = %v, want 0", got)
	}
}
