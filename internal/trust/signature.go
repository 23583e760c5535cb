package trust

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wolfeidau/formulary/internal/pki"
)

// SignProperties signs the raw properties document and returns the
// contents of the signature artifact.
func SignProperties(signer crypto.Signer, properties []byte) ([]byte, error) {
	sig, err := pki.SignES256(signer, properties)
	if err != nil {
		return nil, err
	}
	return []byte(base64.RawURLEncoding.EncodeToString(sig)), nil
}

// VerifyProperties checks a signature artifact against the raw properties
// document.
func VerifyProperties(properties, signature []byte, pub *ecdsa.PublicKey) error {
	sig, err := base64.RawURLEncoding.DecodeString(string(bytes.TrimSpace(signature)))
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", err)
	}
	return jwt.SigningMethodES256.Verify(string(properties), sig, pub)
}

// Checksum returns the lowercase hex SHA-256 of module.
func Checksum(module []byte) string {
	sum := sha256.Sum256(module)
	return hex.EncodeToString(sum[:])
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
