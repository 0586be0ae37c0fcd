// Copyright 2026 The Taskdesk Authors
// SPDX-License-Identifier: Apache-2.0

package sessiontoken

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskdesk/taskdesk/lib/clock"
	"github.com/taskdesk/taskdesk/lib/codec"
	"github.com/taskdesk/taskdesk/lib/schema"
)

// DefaultLifetime is the token validity window when the issuer is not
// configured otherwise.
const DefaultLifetime = 20 * time.Minute

// signatureSize is the fixed size of an Ed25519 signature.
const signatureSize = ed25519.SignatureSize // 64 bytes

// Claims is the CBOR-encoded payload of a session token.
type Claims struct {
	// Subject is the user id the token asserts.
	Subject int64 `cbor:"1,keyasint"`

	// Username is the login name at issuance time.
	Username string `cbor:"2,keyasint"`

	// Role is the authorization role at issuance time. Authorization
	// decisions read this claim, not the identity store, so a role
	// change takes effect only after re-login.
	Role schema.Role `cbor:"3,keyasint"`

	// ID is a unique token identifier.
	ID string `cbor:"4,keyasint"`

	// IssuedAt is a Unix timestamp (seconds) of issuance.
	IssuedAt int64 `cbor:"5,keyasint"`

	// ExpiresAt is a Unix timestamp (seconds) after which the token
	// is no longer valid.
	ExpiresAt int64 `cbor:"6,keyasint"`
}

// Errors returned by Verify.
var (
	ErrTokenMalformed   = errors.New("sessiontoken: token is malformed")
	ErrInvalidSignature = errors.New("sessiontoken: invalid Ed25519 signature")
	ErrTokenExpired     = errors.New("sessiontoken: token has expired")
)

// Mint signs claims with the service's private key and returns the raw
// wire bytes: CBOR payload followed by the 64-byte signature.
func Mint(privateKey ed25519.PrivateKey, claims *Claims) ([]byte, error) {
	payload, err := codec.Marshal(claims)
	if err != nil {
		return nil, fmt.Errorf("sessiontoken: encoding claims: %w", err)
	}

	signature := ed25519.Sign(privateKey, payload)

	token := make([]byte, len(payload)+signatureSize)
	copy(token, payload)
	copy(token[len(payload):], signature)
	return token, nil
}

// VerifyAt splits the raw token bytes, verifies the signature, decodes
// the claims, and checks expiry against the given time.
func VerifyAt(publicKey ed25519.PublicKey, token []byte, now time.Time) (*Claims, error) {
	if len(token) <= signatureSize {
		return nil, ErrTokenMalformed
	}

	split := len(token) - signatureSize
	payload := token[:split]
	signature := token[split:]

	if !ed25519.Verify(publicKey, payload, signature) {
		return nil, ErrInvalidSignature
	}

	var claims Claims
	if err := codec.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	if now.Unix() >= claims.ExpiresAt {
		return nil, ErrTokenExpired
	}

	return &claims, nil
}

// VerifyString decodes a base64url token string and verifies it at the
// given time. This is the boundary's verification path for bearer
// tokens.
func VerifyString(publicKey ed25519.PublicKey, token string, now time.Time) (*Claims, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	return VerifyAt(publicKey, raw, now)
}

// Issuer mints session tokens for authenticated users.
type Issuer struct {
	privateKey ed25519.PrivateKey
	clock      clock.Clock
	lifetime   time.Duration
}

// NewIssuer creates an issuer. A non-positive lifetime selects
// DefaultLifetime.
func NewIssuer(privateKey ed25519.PrivateKey, clk clock.Clock, lifetime time.Duration) *Issuer {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	return &Issuer{
		privateKey: privateKey,
		clock:      clk,
		lifetime:   lifetime,
	}
}

// Issue mints a token for the given user and returns it as an unpadded
// base64url string suitable for an Authorization: Bearer header.
func (i *Issuer) Issue(userID int64, username string, role schema.Role) (string, error) {
	now := i.clock.Now()
	claims := &Claims{
		Subject:   userID,
		Username:  username,
		Role:      role,
		ID:        uuid.NewString(),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(i.lifetime).Unix(),
	}

	raw, err := Mint(i.privateKey, claims)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
