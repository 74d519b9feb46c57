package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// ErrSecretNotFound 表示來源中沒有對應的 secret。
var ErrSecretNotFound = errors.New("secret not found")

// NormalizePrefix 將環境名稱轉成 secret 前綴，例如 staging -> staging-。
func NormalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || strings.HasSuffix(prefix, "-") {
		return prefix
	}
	return prefix + "-"
}

// WithPrefix 加上環境前綴，已帶前綴的名稱不重複加。
func WithPrefix(prefix, name string) string {
	prefix = NormalizePrefix(prefix)
	if prefix == "" || strings.HasPrefix(name, prefix) {
		return name
	}
	return prefix + name
}

type secretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSource 從 AWS Secrets Manager 讀取 JSON 格式的 secret。
type AWSSource struct {
	client secretsManagerAPI
	prefix string
}

// NewAWSSource 使用預設憑證鏈建立 Secrets Manager client。
func NewAWSSource(ctx context.Context, region, prefix string) (*AWSSource, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &AWSSource{client: secretsmanager.NewFromConfig(cfg), prefix: prefix}, nil
}

func (s *AWSSource) Get(ctx context.Context, name string) (map[string]string, error) {
	id := WithPrefix(s.prefix, name)
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(id),
	})
	if err != nil {
		return nil, fmt.Errorf("get secret %s: %w", id, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", id)
	}
	return parseSecret(id, *out.SecretString)
}

// EnvSource 由環境變數組出 secret，例如 jupyter-s3 的 url 對應 JUPYTER_S3_URL；
// 也可以用 JUPYTER_S3 直接放整份 JSON。
type EnvSource struct {
	prefix string
	lookup func(string) (string, bool)
}

func NewEnvSource(prefix string) *EnvSource {
	return &EnvSource{prefix: prefix, lookup: os.LookupEnv}
}

var envSecretKeys = []string{"access_key", "secret_key", "url"}

func (s *EnvSource) Get(_ context.Context, name string) (map[string]string, error) {
	base := envName(WithPrefix(s.prefix, name))
	if raw, ok := s.lookup(base); ok && strings.TrimSpace(raw) != "" {
		return parseSecret(base, raw)
	}
	out := make(map[string]string)
	for _, key := range envSecretKeys {
		if v, ok := s.lookup(base + "_" + envName(key)); ok {
			out[key] = v
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, base)
	}
	return out, nil
}

func envName(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return '_'
	}, s)
}

func parseSecret(id, raw string) (map[string]string, error) {
	var out map[string]string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("parse secret %s: %w", id, err)
	}
	return out, nil
}
