// Package keyloader loads PEM key material from a file or from AWS SSM
// Parameter Store.
package keyloader

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/wolfeidau/formulary/internal/pki"
)

// ErrNoSource is returned when neither a path nor a parameter is configured.
var ErrNoSource = errors.New("no key source configured")

// Source locates key material. SSMParameter wins over Path when both are set.
type Source struct {
	Path         string
	SSMParameter string
}

// IsZero reports whether no source is configured.
func (s Source) IsZero() bool {
	return s.Path == "" && s.SSMParameter == ""
}

// ParameterGetter is the subset of the SSM API used to read parameters.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Loader reads key material. The SSM client is created lazily from the
// default AWS config the first time a parameter is requested.
type Loader struct {
	ssm ParameterGetter
}

// New creates a loader. client may be nil.
func New(client ParameterGetter) *Loader {
	return &Loader{ssm: client}
}

// Load returns the raw bytes of src.
func (l *Loader) Load(ctx context.Context, src Source) ([]byte, error) {
	switch {
	case src.SSMParameter != "":
		return l.loadFromSSM(ctx, src.SSMParameter)
	case src.Path != "":
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read key file: %w", err)
		}
		return data, nil
	default:
		return nil, ErrNoSource
	}
}

// PrivateKey loads and parses a PEM ECDSA private key.
func (l *Loader) PrivateKey(ctx context.Context, src Source) (*ecdsa.PrivateKey, error) {
	data, err := l.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return pki.ParsePrivateKeyPEM(data)
}

// PublicKey loads and parses a PEM ECDSA public key.
func (l *Loader) PublicKey(ctx context.Context, src Source) (*ecdsa.PublicKey, error) {
	data, err := l.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return pki.ParsePublicKeyPEM(data)
}

func (l *Loader) loadFromSSM(ctx context.Context, name string) ([]byte, error) {
	if l.ssm == nil {
		awsConfig, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		l.ssm = ssm.NewFromConfig(awsConfig)
	}

	output, err := l.ssm.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s from SSM: %w", name, err)
	}
	if output.Parameter == nil || output.Parameter.Value == nil {
		return nil, fmt.Errorf("parameter %s has no value", name)
	}
	return []byte(*output.Parameter.Value), nil
}
