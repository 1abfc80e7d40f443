// Package secrets resolves credentials for the model provider.
package secrets

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/tidwall/gjson"
	"github.com/zheruizz/another.ai-app/internal/errors"
)

const defaultField = "OPENAI_API_KEY"

var ErrNoAPIKey = errors.NewSentinel("api key not found in secrets manager or environment")

// Source describes where an API key may be found.
type Source struct {
	// SecretName and Region select an AWS Secrets Manager secret. Both must be set for the secret to be used.
	SecretName string
	Region     string
	// Field is the JSON field of the secret holding the key. Defaults to OPENAI_API_KEY.
	Field string
	// EnvValue is the key taken from the environment, used when no secret is configured.
	EnvValue string
}

// SecretsAPI is the subset of the Secrets Manager client used here.
type SecretsAPI interface {
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// Resolver looks up API keys. The zero value is not usable; create one with NewResolver.
type Resolver struct {
	newClient func(ctx context.Context, region string) (SecretsAPI, error)
}

// NewResolver returns a Resolver that talks to AWS with the default credential chain.
func NewResolver() *Resolver {
	return &Resolver{newClient: newAWSClient}
}

// NewResolverWithClient returns a Resolver that always uses api, regardless of the configured region.
func NewResolverWithClient(api SecretsAPI) *Resolver {
	return &Resolver{newClient: func(context.Context, string) (SecretsAPI, error) {
		return api, nil
	}}
}

func newAWSClient(ctx context.Context, region string) (SecretsAPI, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

// APIKey prefers the Secrets Manager secret when one is configured and falls back to the environment value.
func (r *Resolver) APIKey(ctx context.Context, src Source) (string, error) {
	if src.SecretName != "" && src.Region != "" {
		return r.fromSecret(ctx, src)
	}
	if key := strings.TrimSpace(src.EnvValue); key != "" {
		return key, nil
	}
	return "", ErrNoAPIKey
}

func (r *Resolver) fromSecret(ctx context.Context, src Source) (string, error) {
	client, err := r.newClient(ctx, src.Region)
	if err != nil {
		return "", err
	}
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{ //nolint:exhaustruct // optional fields
		SecretId: aws.String(src.SecretName),
	})
	if err != nil {
		return "", errors.Wrap(err, "get secret value", slog.String("secret", src.SecretName))
	}
	if out.SecretString == nil || *out.SecretString == "" {
		return "", errors.New("secret has no string value", slog.String("secret", src.SecretName))
	}

	if !gjson.Valid(*out.SecretString) {
		return "", errors.New("secret is not valid JSON", slog.String("secret", src.SecretName))
	}
	field := src.Field
	if field == "" {
		field = defaultField
	}
	value := gjson.Get(*out.SecretString, gjson.Escape(field))
	key := value.String()
	if value.Type != gjson.String || key == "" {
		return "", errors.New("secret is missing field", slog.String("secret", src.SecretName), slog.String("field", field))
	}
	return key, nil
}
