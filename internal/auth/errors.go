// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shearbook Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested account does not exist or
// has been soft-deleted.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned by the repository when an insert loses
// the active-email uniqueness race.
var ErrDuplicateEmail = errors.New("duplicate email")
