package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Settings 為建立 S3 client 所需的憑證與 bucket。
type S3Settings struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
}

// S3SettingsFromSecret 由 secret 內容（access_key/secret_key/url）組出設定。
func S3SettingsFromSecret(secret map[string]string, region, endpoint string) (S3Settings, error) {
	s := S3Settings{
		AccessKey: strings.TrimSpace(secret["access_key"]),
		SecretKey: strings.TrimSpace(secret["secret_key"]),
		Bucket:    strings.TrimSpace(secret["url"]),
		Region:    region,
		Endpoint:  endpoint,
	}
	if s.Bucket == "" {
		return S3Settings{}, fmt.Errorf("s3 secret is missing bucket url")
	}
	if (s.AccessKey == "") != (s.SecretKey == "") {
		return S3Settings{}, fmt.Errorf("s3 secret must carry both access_key and secret_key")
	}
	return s, nil
}

// NewS3Client 建立 S3 client；未提供 access key 時使用預設憑證鏈。
func NewS3Client(ctx context.Context, s S3Settings) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(s.Region)}
	if s.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.AccessKey, s.SecretKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if s.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
