package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/argon2"

	"github.com/heistp/cryptopan"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Generate or derive a construction secret",
}

func init() {
	keyDeriveCmd.Flags().String("passphrase", "", "passphrase to derive the secret from")
	keyDeriveCmd.Flags().String("salt", "", "salt for the derivation (required)")
	_ = keyDeriveCmd.MarkFlagRequired("passphrase")
	_ = keyDeriveCmd.MarkFlagRequired("salt")

	keyCmd.AddCommand(keyGenerateCmd)
	keyCmd.AddCommand(keyDeriveCmd)
}

var keyGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a random 32-byte secret and print it hex-encoded",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := make([]byte, cryptopan.SecretLen)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("cryptopan: generate secret: %w", err)
		}
		fmt.Println(hex.EncodeToString(secret))
		return nil
	},
}

var keyDeriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Derive a 32-byte secret from a passphrase using argon2id, and print it hex-encoded",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		passphrase, _ := cmd.Flags().GetString("passphrase")
		salt, _ := cmd.Flags().GetString("salt")
		secret := argon2.IDKey([]byte(passphrase), []byte(salt), 3, 64*1024, 4, uint32(cryptopan.SecretLen))
		fmt.Println(hex.EncodeToString(secret))
		return nil
	},
}
