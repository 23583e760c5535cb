// Package pki manages the ECDSA P-256 keys used to sign plugin packages and
// admin tokens, and their JWK representation on the key server.
package pki

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"

	"github.com/mr-tron/base58"
)

// JWKS is the document served by a key server.
type JWKS struct {
	Keys []map[string]any `json:"keys"`
}

// Find returns the parsed key with the given kid.
func (s *JWKS) Find(kid string) (*ecdsa.PublicKey, error) {
	for _, jwk := range s.Keys {
		if k, _ := jwk["kid"].(string); k != kid {
			continue
		}
		return ParseJWK(jwk)
	}
	return nil, fmt.Errorf("kid not found in JWKS: %s", kid)
}

// GenerateKey creates a fresh P-256 key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ECDSA key: %w", err)
	}
	return key, nil
}

// Fingerprint is the base58 encoded SHA-256 of the PKIX DER public key. It
// is used as the JWK kid.
func Fingerprint(pub *ecdsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}
	hash := sha256.Sum256(der)
	return base58.Encode(hash[:]), nil
}

// JWK returns pub in JWK format.
func JWK(pub *ecdsa.PublicKey, kid string) map[string]any {
	return map[string]any{
		"kty": "EC",
		"use": "sig",
		"crv": "P-256",
		"kid": kid,
		"x":   base64.RawURLEncoding.EncodeToString(pub.X.FillBytes(make([]byte, 32))),
		"y":   base64.RawURLEncoding.EncodeToString(pub.Y.FillBytes(make([]byte, 32))),
		"alg": "ES256",
	}
}

// ParseJWK parses a P-256 JWK into an ECDSA public key.
func ParseJWK(jwk map[string]any) (*ecdsa.PublicKey, error) {
	kty, ok := jwk["kty"].(string)
	if !ok || kty != "EC" {
		return nil, fmt.Errorf("unsupported key type: %v", jwk["kty"])
	}

	crv, ok := jwk["crv"].(string)
	if !ok || crv != "P-256" {
		return nil, fmt.Errorf("unsupported curve: %v", jwk["crv"])
	}

	xStr, ok := jwk["x"].(string)
	if !ok {
		return nil, errors.New("missing x coordinate")
	}

	yStr, ok := jwk["y"].(string)
	if !ok {
		return nil, errors.New("missing y coordinate")
	}

	xBytes, err := decodeBase64URL(xStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode x: %w", err)
	}

	yBytes, err := decodeBase64URL(yStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode y: %w", err)
	}

	pub := &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}

	if _, err := pub.ECDH(); err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}

	return pub, nil
}

// decodeBase64URL decodes a base64url string with or without padding.
func decodeBase64URL(s string) ([]byte, error) {
	switch len(s) % 4 {
	case 2:
		s += "=="
	case 3:
		s += "="
	}
	return base64.URLEncoding.DecodeString(s)
}

// EncodePrivateKeyPEM encodes key as an "EC PRIVATE KEY" PEM block.
func EncodePrivateKeyPEM(key *ecdsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), nil
}

// EncodePublicKeyPEM encodes pub as a "PUBLIC KEY" PEM block.
func EncodePublicKeyPEM(pub *ecdsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// ParsePrivateKeyPEM parses an "EC PRIVATE KEY" or PKCS#8 PEM block.
func ParsePrivateKeyPEM(data []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}

	if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	key, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("not an ECDSA private key (got %T)", parsed)
	}
	return key, nil
}

// ParsePublicKeyPEM parses a PEM-encoded ECDSA public key.
func ParsePublicKeyPEM(data []byte) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	ecdsaPub, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("not an ECDSA public key")
	}

	return ecdsaPub, nil
}
