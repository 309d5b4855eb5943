package signature

import (
	"context"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/golang-jwt/jwt/v4"
)

// signer produces a raw RSASSA-PKCS1-v1_5 SHA-256 signature over message.
type signer interface {
	sign(ctx context.Context, message string) ([]byte, error)
}

// rsaSigner signs with a private key held in process memory.
type rsaSigner struct {
	key *rsa.PrivateKey
}

func parseKey(privateKeyPEM []byte) (*rsa.PrivateKey, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, SigningError{Cause: fmt.Errorf("could not parse private key: %w", err)}
	}
	return key, nil
}

func (s rsaSigner) sign(_ context.Context, message string) ([]byte, error) {
	// RS256 is RSASSA-PKCS1-v1_5 over SHA-256; the JWT segment encoding is
	// undone so the caller can apply standard base64.
	segment, err := jwt.SigningMethodRS256.Sign(message, s.key)
	if err != nil {
		return nil, SigningError{Cause: err}
	}

	raw, err := jwt.DecodeSegment(segment)
	if err != nil {
		return nil, SigningError{Cause: err}
	}

	return raw, nil
}

// KMSClient defines the AWS API surface required for KMS signing.
type KMSClient interface {
	Sign(ctx context.Context, in *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
}

// kmsSigner delegates signing to an asymmetric AWS KMS key, so the private
// key never leaves KMS.
type kmsSigner struct {
	client KMSClient
	arn    string
}

func (s kmsSigner) sign(ctx context.Context, message string) ([]byte, error) {
	hash := sha256.Sum256([]byte(message))

	out, err := s.client.Sign(ctx, &kms.SignInput{
		KeyId:            aws.String(s.arn),
		Message:          hash[:],
		MessageType:      types.MessageTypeDigest,
		SigningAlgorithm: types.SigningAlgorithmSpecRsassaPkcs1V15Sha256,
	})
	if err != nil {
		return nil, SigningError{Cause: fmt.Errorf("KMS signing failed: %w", err)}
	}

	return out.Signature, nil
}
