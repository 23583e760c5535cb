package pki

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/asn1"
	"errors"
	"fmt"
	"math/big"
)

// SignES256 signs payload with signer and returns the 64 byte r||s
// signature used by JWS ES256. signer may be a local *ecdsa.PrivateKey or a
// KMS backed signer; both produce ASN.1 DER signatures over a SHA-256 digest.
func SignES256(signer crypto.Signer, payload []byte) ([]byte, error) {
	pub, ok := signer.Public().(*ecdsa.PublicKey)
	if !ok || pub.Curve.Params().BitSize != 256 {
		return nil, errors.New("ES256 requires a P-256 key")
	}

	digest := sha256.Sum256(payload)
	der, err := signer.Sign(rand.Reader, digest[:], crypto.SHA256)
	if err != nil {
		return nil, fmt.Errorf("failed to sign payload: %w", err)
	}

	return derToRaw(der)
}

func derToRaw(der []byte) ([]byte, error) {
	var sig struct {
		R, S *big.Int
	}
	rest, err := asn1.Unmarshal(der, &sig)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signature: %w", err)
	}
	if len(rest) > 0 {
		return nil, errors.New("trailing data after signature")
	}
	if sig.R.BitLen() > 256 || sig.S.BitLen() > 256 {
		return nil, errors.New("signature component too large")
	}

	raw := make([]byte, 64)
	sig.R.FillBytes(raw[:32])
	sig.S.FillBytes(raw[32:])
	return raw, nil
}
