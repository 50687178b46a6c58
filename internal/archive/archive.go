// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package archive uploads finished batch logs to an S3-compatible bucket
// (AWS S3 or MinIO).
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/specialistvlad/moldyngo/internal/ctxlog"
)

const defaultRegion = "us-east-1"

// Config is the `archive` block of an objective configuration. Credentials
// fall back to the default AWS chain when the key pair is empty.
type Config struct {
	Bucket          string `hcl:"bucket"`
	Region          string `hcl:"region,optional"`
	Prefix          string `hcl:"prefix,optional"`
	Endpoint        string `hcl:"endpoint,optional"`
	PathStyle       bool   `hcl:"path_style,optional"`
	AccessKeyID     string `hcl:"access_key_id,optional"`
	SecretAccessKey string `hcl:"secret_access_key,optional"`
}

// Uploader writes log files into one bucket under a key prefix.
type Uploader struct {
	client *s3.Client
	bucket string
	prefix string
}

// New creates an Uploader. optFns are applied to the S3 client options after
// the ones derived from cfg.
func New(ctx context.Context, cfg Config, optFns ...func(*s3.Options)) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("archive bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
			return nil, errors.New("archive access_key_id and secret_access_key must be set together")
		}
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, append([]func(*s3.Options){func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}}, optFns...)...)

	return &Uploader{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Key returns the object key a local log file is stored under.
func (u *Uploader) Key(localPath string) string {
	name := filepath.Base(localPath)
	prefix := strings.Trim(u.prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// Upload copies the file at localPath to the bucket and returns its key.
func (u *Uploader) Upload(ctx context.Context, localPath string) (string, error) {
	logger := ctxlog.FromContext(ctx)

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	key := u.Key(localPath)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", u.bucket, key, err)
	}
	logger.Info("Archived batch log.", "bucket", u.bucket, "key", key)
	return key, nil
}
