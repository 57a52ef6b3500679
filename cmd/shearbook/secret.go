// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shearbook Contributors

package main

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// defaultSecretBytes is the entropy of a generated signing secret.
// 32 bytes matches the HMAC-SHA256 block recommendation.
const defaultSecretBytes = 32

// newSecretCmd creates the secret subcommand.
func newSecretCmd() *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Generate a token signing secret",
		Long: `Generate a random base64-encoded secret suitable for
SHEARBOOK_JWT_SECRET. Rotating the secret invalidates every
outstanding token.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSecret(cmd, size)
		},
	}

	cmd.Flags().IntVar(&size, "bytes", defaultSecretBytes, "secret length in bytes")

	return cmd
}

func runSecret(cmd *cobra.Command, size int) error {
	if size < defaultSecretBytes {
		return oops.Code("CONFIG_INVALID").
			With("bytes", size).
			Errorf("secret must be at least %d bytes", defaultSecretBytes)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return oops.Code("SECRET_GENERATE_FAILED").Wrap(err)
	}

	cmd.Println(base64.StdEncoding.EncodeToString(buf))
	return nil
}
