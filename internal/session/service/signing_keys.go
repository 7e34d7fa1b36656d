package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"gocloud.dev/secrets"
	"golang.org/x/crypto/hkdf"

	// Register the KMS provider drivers accepted in SECRET_KEY_KMS_URI
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// MinSecretLength is the shortest secret accepted as key material.
const MinSecretLength = 16

const signingKeyInfo = "session-credential-signing-v1"

// SigningKeys holds the derived MAC keys. Current signs every new credential;
// Previous keys are only accepted when verifying.
type SigningKeys struct {
	Current  []byte
	Previous [][]byte
}

// KeySource describes where the signing secrets come from.
type KeySource struct {
	Secret   string   // Current secret, or base64 ciphertext when KMSURI is set
	Previous []string // Retired secrets in the same encoding as Secret
	KMSURI   string   // Optional gocloud.dev/secrets keeper URI
}

// DeriveSigningKey derives a 32-byte HMAC key from secret with HKDF-SHA256.
func DeriveSigningKey(secret []byte) ([]byte, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("secret must be at least %d bytes", MinSecretLength)
	}

	reader := hkdf.New(sha256.New, secret, nil, []byte(signingKeyInfo))

	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// LoadSigningKeys resolves and derives every signing key once at startup.
// When src.KMSURI is set each secret is base64 ciphertext decrypted by that keeper.
func LoadSigningKeys(ctx context.Context, src KeySource) (*SigningKeys, error) {
	resolve := func(secret string) ([]byte, error) { return []byte(secret), nil }

	if src.KMSURI != "" {
		keeper, err := secrets.OpenKeeper(ctx, src.KMSURI)
		if err != nil {
			return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
		}
		defer func() {
			_ = keeper.Close()
		}()

		resolve = func(secret string) ([]byte, error) {
			ciphertext, err := base64.StdEncoding.DecodeString(secret)
			if err != nil {
				return nil, fmt.Errorf("failed to decode encrypted secret: %w", err)
			}
			plaintext, err := keeper.Decrypt(ctx, ciphertext)
			if err != nil {
				return nil, fmt.Errorf("failed to decrypt secret: %w", err)
			}
			return plaintext, nil
		}
	}

	derive := func(secret string) ([]byte, error) {
		raw, err := resolve(secret)
		if err != nil {
			return nil, err
		}
		return DeriveSigningKey(raw)
	}

	current, err := derive(src.Secret)
	if err != nil {
		return nil, fmt.Errorf("current signing key: %w", err)
	}

	keys := &SigningKeys{Current: current}
	for i, secret := range src.Previous {
		key, err := derive(secret)
		if err != nil {
			return nil, fmt.Errorf("previous signing key %d: %w", i, err)
		}
		keys.Previous = append(keys.Previous, key)
	}

	return keys, nil
}
