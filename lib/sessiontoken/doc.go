// Copyright 2026 The Taskdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Package sessiontoken issues and verifies signed identity assertions.
//
// A session token is a CBOR-encoded claims payload followed by a
// 64-byte Ed25519 signature, carried over HTTP as unpadded base64url.
// Claims are the user id (subject), username, role, a unique token id,
// and issue/expiry timestamps. Lifetime is fixed at issuance (20
// minutes by default) and there is no refresh or revocation: a token
// stays valid until expiry even if the user's password changes or the
// account is deleted. Role changes inside that window are likewise not
// reflected; the claims are a snapshot from login time.
package sessiontoken
