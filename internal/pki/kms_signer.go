package pki

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/x509"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
)

// KMSClient is the subset of the KMS API used for signing.
type KMSClient interface {
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
	Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
}

// NewKMSSigner creates a crypto.Signer backed by an ECC_NIST_P256 AWS KMS
// key. The private key never leaves KMS. kmsKeyID may be a key ID, key ARN,
// alias name or alias ARN.
func NewKMSSigner(ctx context.Context, awsConfig aws.Config, kmsKeyID string) (crypto.Signer, error) {
	return newKMSSigner(ctx, kms.NewFromConfig(awsConfig), kmsKeyID)
}

func newKMSSigner(ctx context.Context, client KMSClient, kmsKeyID string) (*kmsSigner, error) {
	pubKeyOutput, err := client.GetPublicKey(ctx, &kms.GetPublicKeyInput{
		KeyId: aws.String(kmsKeyID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get public key from KMS: %w", err)
	}

	kmsPublicKey, err := x509.ParsePKIXPublicKey(pubKeyOutput.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse KMS public key: %w", err)
	}

	ecdsaPubKey, ok := kmsPublicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("KMS key is not ECDSA (got %T)", kmsPublicKey)
	}

	return &kmsSigner{
		client:    client,
		kmsKeyID:  kmsKeyID,
		publicKey: ecdsaPubKey,
		ctx:       ctx,
	}, nil
}

type kmsSigner struct {
	client    KMSClient
	kmsKeyID  string
	publicKey *ecdsa.PublicKey
	ctx       context.Context
}

func (k *kmsSigner) Public() crypto.PublicKey {
	return k.publicKey
}

// Sign signs a SHA-256 digest and returns the DER signature KMS produces.
func (k *kmsSigner) Sign(_ io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	if opts.HashFunc() != crypto.SHA256 {
		return nil, fmt.Errorf("KMS signer only supports SHA256, got %v", opts.HashFunc())
	}

	out, err := k.client.Sign(k.ctx, &kms.SignInput{
		KeyId:            aws.String(k.kmsKeyID),
		Message:          digest,
		MessageType:      types.MessageTypeDigest,
		SigningAlgorithm: types.SigningAlgorithmSpecEcdsaSha256,
	})
	if err != nil {
		return nil, fmt.Errorf("KMS sign operation failed: %w", err)
	}

	return out.Signature, nil
}
