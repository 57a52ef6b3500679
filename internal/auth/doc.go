// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shearbook Contributors

// Package auth provides authentication primitives for Shearbook.
//
// # Domain Types
//
// Account is the identity record; construct local accounts through
// NewLocalAccount so every field is validated before persistence.
// Profile is the public view of an account and never carries the
// password hash.
//
// # Components
//
// Three collaborators make up the subsystem:
//   - AccountRepository - durable account storage with active-email
//     uniqueness enforced at the data layer
//   - PasswordHasher - one-way hashing with constant-time verification
//   - TokenCodec - stateless signed session tokens (access + refresh)
//
// Service orchestrates signup, login, profile lookup, and session
// refresh over those three. Services are created with New*
// constructors that validate their dependencies.
package auth
