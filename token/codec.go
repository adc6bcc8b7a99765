// Package token extracts the payload of a compact three-segment bearer
// token for client-side routing decisions. It performs no signature
// verification: the backend is the security boundary, and a decoded claim
// set is advisory only, never grounds for granting access to a resource.
package token

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// Claims is the decoded payload of a bearer token.
type Claims struct {
	// Subject identifies the user the token was issued to.
	Subject string

	// Email is present when the backend puts the login email in the payload.
	Email string

	// Roles holds the raw authority strings exactly as the backend emitted
	// them, prefixes included. Normalization happens in the role package.
	Roles []string

	// IssuedAt is the issue instant, zero when the claim is absent.
	IssuedAt time.Time

	// ExpiresAt is the expiry instant, zero when the claim is absent.
	ExpiresAt time.Time
}

// rawClaims mirrors the JSON payload. The authority claim is kept raw
// because it arrives in two shapes.
type rawClaims struct {
	Subject     string          `json:"sub"`
	Email       string          `json:"email"`
	Authorities json.RawMessage `json:"authorities"`
	Roles       json.RawMessage `json:"roles"`
	Role        json.RawMessage `json:"role"`
	IssuedAt    json.Number     `json:"iat"`
	ExpiresAt   json.Number     `json:"exp"`
}

// Decode extracts the claims from the middle segment of a compact token.
// It never fails loudly: any malformation (wrong segment count, invalid
// base64url, invalid JSON) yields nil, which callers treat the same as
// "no token".
func Decode(tok string) *Claims {
	segments := strings.Split(tok, ".")
	if len(segments) != 3 {
		return nil
	}

	payload, err := decodeSegment(segments[1])
	if err != nil {
		return nil
	}

	var raw rawClaims
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil
	}

	claims := &Claims{
		Subject: raw.Subject,
		Email:   raw.Email,
	}

	for _, m := range []json.RawMessage{raw.Authorities, raw.Roles, raw.Role} {
		if len(m) == 0 {
			continue
		}
		claims.Roles = parseAuthorities(m)
		break
	}

	if sec, err := raw.IssuedAt.Int64(); err == nil && sec > 0 {
		claims.IssuedAt = time.Unix(sec, 0)
	}
	if sec, err := raw.ExpiresAt.Int64(); err == nil && sec > 0 {
		claims.ExpiresAt = time.Unix(sec, 0)
	}

	return claims
}

// decodeSegment handles both padded and unpadded base64url, since token
// issuers are not consistent about padding.
func decodeSegment(seg string) ([]byte, error) {
	if l := len(seg) % 4; l > 0 {
		seg += strings.Repeat("=", 4-l)
	}
	return base64.URLEncoding.DecodeString(seg)
}

// parseAuthorities accepts the authority claim in its three observed
// shapes: a flat string list, a list of {authority: string} objects,
// and a bare string.
func parseAuthorities(m json.RawMessage) []string {
	var flat []string
	if err := json.Unmarshal(m, &flat); err == nil {
		return flat
	}

	var wrapped []struct {
		Authority string `json:"authority"`
	}
	if err := json.Unmarshal(m, &wrapped); err == nil {
		out := make([]string, 0, len(wrapped))
		for _, w := range wrapped {
			if w.Authority != "" {
				out = append(out, w.Authority)
			}
		}
		return out
	}

	var single string
	if err := json.Unmarshal(m, &single); err == nil && single != "" {
		return []string{single}
	}

	return nil
}
