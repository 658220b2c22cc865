// Package archive 保存用户上传的原始导入文件，便于事后核对
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/config"
)

type Archiver interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// Nop 在未配置对象存储时使用
type Nop struct{}

func (Nop) Put(context.Context, string, []byte, string) error { return nil }

type S3Archiver struct {
	client *s3.Client
	bucket string
}

// New 在配置了 bucket 时返回 S3Archiver，否则返回 Nop
func New(ctx context.Context, cfg *config.Config) (Archiver, error) {
	s3cfg := cfg.Archive.S3
	if s3cfg.Bucket == "" {
		return Nop{}, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(s3cfg.Region),
	}
	if s3cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s3cfg.AccessKey, s3cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s3cfg.Endpoint != "" {
			// MinIO 等兼容服务需要 path-style 访问
			o.BaseEndpoint = aws.String(s3cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Archiver{client: client, bucket: s3cfg.Bucket}, nil
}

func (a *S3Archiver) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	return err
}

func ImportKey(t time.Time) string {
	return fmt.Sprintf("imports/%04d/%02d/%02d/%s.xlsx", t.Year(), t.Month(), t.Day(), uuid.NewString())
}
