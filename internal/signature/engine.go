package signature

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

// Header names of the signed request header set.
const (
	HeaderConsumerID = "WM_CONSUMER.ID"
	HeaderTimestamp  = "WM_CONSUMER.INTIMESTAMP"
	HeaderKeyVersion = "WM_SEC.KEY_VERSION"
	HeaderSignature  = "WM_SEC.AUTH_SIGNATURE"
)

// Sign canonicalizes the headers and signs the result with the PEM encoded
// RSA private key (PKCS#1 or PKCS#8), returning the standard base64
// signature. Identical inputs always produce an identical signature.
func Sign(headers map[string]string, privateKeyPEM []byte) (string, error) {
	key, err := parseKey(privateKeyPEM)
	if err != nil {
		return "", err
	}

	return signWith(context.Background(), rsaSigner{key: key}, headers)
}

func signWith(ctx context.Context, s signer, headers map[string]string) (string, error) {
	_, stringToSign := Canonicalize(headers)

	raw, err := s.sign(ctx, stringToSign)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(raw), nil
}

// Engine signs request header sets with a key loaded once at construction.
type Engine struct {
	signer signer
}

// NewRSA creates an Engine from PEM encoded key material, failing if the key
// cannot be parsed.
func NewRSA(privateKeyPEM []byte) (*Engine, error) {
	key, err := parseKey(privateKeyPEM)
	if err != nil {
		return nil, err
	}

	return &Engine{signer: rsaSigner{key: key}}, nil
}

// NewRSAFromFile creates an Engine from a PEM file on disk.
func NewRSAFromFile(path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, SigningError{Cause: fmt.Errorf("could not read private key file: %w", err)}
	}

	return NewRSA(data)
}

// NewKMS creates an Engine that signs with the asymmetric KMS key identified
// by arn.
func NewKMS(client KMSClient, arn string) (*Engine, error) {
	if client == nil {
		return nil, errors.New("KMS client is required")
	}
	if arn == "" {
		return nil, errors.New("KMS key ARN is required")
	}

	return &Engine{signer: kmsSigner{client: client, arn: arn}}, nil
}

// LoadKMS creates a KMS-backed Engine using the default AWS credential chain.
func LoadKMS(ctx context.Context, arn string) (*Engine, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return NewKMS(kms.NewFromConfig(awsCfg), arn)
}

// Headers builds the complete header set for a single request: the consumer
// id, the request timestamp in Unix milliseconds and the key version, plus
// the signature over those three.
func (e *Engine) Headers(ctx context.Context, consumerID, keyVersion string, now time.Time) (map[string]string, error) {
	headers := map[string]string{
		HeaderConsumerID: consumerID,
		HeaderTimestamp:  strconv.FormatInt(now.UnixMilli(), 10),
		HeaderKeyVersion: keyVersion,
	}

	sig, err := signWith(ctx, e.signer, headers)
	if err != nil {
		return nil, err
	}

	headers[HeaderSignature] = sig

	return headers, nil
}
