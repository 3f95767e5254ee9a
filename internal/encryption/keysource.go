package encryption

import (
	"context"
	"encoding/base64"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"

	"onboarding-service/internal/config"
	"onboarding-service/internal/util"
)

// LoadFieldKey resolves the process-wide field-encryption key from the
// configuration: either FIELD_ENCRYPTION_KEY directly, or a KMS-wrapped key
// blob unwrapped through AWS KMS. There is deliberately no fallback key; a
// deployment without configured key material does not start.
func LoadFieldKey(ctx context.Context, cfg *config.Config) ([]byte, error) {
	if cfg.Encryption.Key != "" {
		key, err := base64.StdEncoding.DecodeString(cfg.Encryption.Key)
		if err != nil {
			return nil, fmt.Errorf("field key: FIELD_ENCRYPTION_KEY is not valid base64: %w", err)
		}
		if len(key) != KeySize {
			return nil, fmt.Errorf("field key: expected %d bytes, got %d", KeySize, len(key))
		}
		return key, nil
	}

	if cfg.Encryption.WrappedKey != "" {
		return unwrapWithKMS(ctx, cfg)
	}

	return nil, fmt.Errorf("field key: no encryption key configured")
}

func unwrapWithKMS(ctx context.Context, cfg *config.Config) ([]byte, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.KMS.Region))
	if err != nil {
		return nil, fmt.Errorf("field key: load aws config: %w", err)
	}

	blob, err := base64.StdEncoding.DecodeString(cfg.Encryption.WrappedKey)
	if err != nil {
		return nil, fmt.Errorf("field key: FIELD_ENCRYPTION_KEY_WRAPPED is not valid base64: %w", err)
	}

	client := kms.NewFromConfig(awsCfg)
	out, err := client.Decrypt(ctx, &kms.DecryptInput{CiphertextBlob: blob})
	if err != nil {
		return nil, fmt.Errorf("field key: kms unwrap failed: %w", err)
	}

	if len(out.Plaintext) != KeySize {
		return nil, fmt.Errorf("field key: kms returned %d bytes, expected %d", len(out.Plaintext), KeySize)
	}

	util.Info("Field encryption key unwrapped via KMS",
		util.String("kms_key_id", cfg.KMS.KeyID),
	)

	return out.Plaintext, nil
}
