package aws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// SecretGetter fetches a secret string by name. A secret that does not exist
// yields "" and no error.
type SecretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

type secretsAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

type cachedSecret struct {
	value   string
	fetched time.Time
}

// SecretsClient reads Secrets Manager values. Values are reused for ttl so a
// rotated Stripe key is picked up on the next lookup after expiry.
type SecretsClient struct {
	api secretsAPI
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	cache map[string]cachedSecret
}

func NewSecretsClient(cfg sdkaws.Config) *SecretsClient {
	return newSecretsClient(secretsmanager.NewFromConfig(cfg), 15*time.Minute)
}

func newSecretsClient(api secretsAPI, ttl time.Duration) *SecretsClient {
	return &SecretsClient{api: api, ttl: ttl, now: time.Now, cache: make(map[string]cachedSecret)}
}

func (s *SecretsClient) GetSecret(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	if c, ok := s.cache[name]; ok && s.now().Sub(c.fetched) < s.ttl {
		s.mu.Unlock()
		return c.value, nil
	}
	s.mu.Unlock()

	out, err := s.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: sdkaws.String(name)})
	var notFound *smtypes.ResourceNotFoundException
	switch {
	case errors.As(err, &notFound):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("get secret %s: %w", name, err)
	}

	var value string
	switch {
	case out.SecretString != nil:
		value = *out.SecretString
	case len(out.SecretBinary) > 0:
		value = string(out.SecretBinary)
	default:
		return "", fmt.Errorf("secret %s is empty", name)
	}

	s.mu.Lock()
	s.cache[name] = cachedSecret{value: value, fetched: s.now()}
	s.mu.Unlock()
	return value, nil
}
