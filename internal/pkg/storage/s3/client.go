package s3aws

import (
	"bytes"
	"context"
	"fmt"
	"mobile-banking-core/internal/pkg/logger"
	"mobile-banking-core/internal/pkg/redis"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// PresignTTL is how long a review link to an archived capture stays valid.
const PresignTTL = 15 * time.Minute

type S3Config struct {
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
}

type S3Client struct {
	Client     *s3.S3
	BucketName string
	redis      redis.IRedis
}

// Is3 is the capture archive.
type Is3 interface {
	GetBucketName() string
	UploadFile(ctx context.Context, key string, fileBytes []byte, contentType string) error
	GetPresignedURL(ctx context.Context, key string) (string, error)
}

func newSession(cfg S3Config) (*session.Session, error) {
	return session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWSRegion),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		),
	})
}

// NewS3Client connects to the bucket, creating it when missing. The redis
// client is optional and caches presigned URLs.
func NewS3Client(ctx context.Context, cfg S3Config, bucketName string, rds redis.IRedis) (*S3Client, error) {
	sess, err := newSession(cfg)
	if err != nil {
		return nil, err
	}

	s3Client := &S3Client{
		Client:     s3.New(sess),
		BucketName: bucketName,
		redis:      rds,
	}

	exists, err := s3Client.bucketExists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err = s3Client.createBucket(ctx); err != nil {
			return nil, err
		}
	}

	return s3Client, nil
}

func (s *S3Client) bucketExists(ctx context.Context) (bool, error) {
	_, err := s.Client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.BucketName),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok {
			switch aerr.Code() {
			case s3.ErrCodeNoSuchBucket, "NotFound":
				return false, nil
			}
		}
		return false, err
	}
	return true, nil
}

func (s *S3Client) createBucket(ctx context.Context) error {
	logger.Info.Printf("creating capture bucket %s", s.BucketName)
	_, err := s.Client.CreateBucketWithContext(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.BucketName),
	})
	return err
}

func (s *S3Client) GetBucketName() string {
	return s.BucketName
}

func (s *S3Client) UploadFile(ctx context.Context, key string, fileBytes []byte, contentType string) error {
	if contentType == "" {
		contentType = contentTypeFromKey(key)
	}
	_, err := s.Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(s.BucketName),
		Key:                  aws.String(key),
		Body:                 bytes.NewReader(fileBytes),
		ContentType:          aws.String(contentType),
		ServerSideEncryption: aws.String(s3.ServerSideEncryptionAes256),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}
	return nil
}

func presignCacheKey(bucket, key string) string {
	return fmt.Sprintf("s3:%s:%s", bucket, key)
}

// GetPresignedURL signs a GET for the object, reusing a cached link while it
// still has more than half of its lifetime left.
func (s *S3Client) GetPresignedURL(ctx context.Context, key string) (string, error) {
	cacheKey := presignCacheKey(s.BucketName, key)
	if s.redis != nil {
		if cached, err := s.redis.Get(cacheKey); err == nil {
			if url := strings.Trim(cached, `"`); strings.HasPrefix(url, "http") {
				return url, nil
			}
		}
	}

	req, _ := s.Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket:                     aws.String(s.BucketName),
		Key:                        aws.String(key),
		ResponseContentType:        aws.String(contentTypeFromKey(key)),
		ResponseContentDisposition: aws.String("inline"),
	})
	req.SetContext(ctx)

	urlStr, err := req.Presign(PresignTTL)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	if s.redis != nil {
		if err = s.redis.Set(cacheKey, urlStr, PresignTTL/2); err != nil {
			logger.Warning.Printf("failed to cache presigned URL for %s: %v", key, err)
		}
	}
	return urlStr, nil
}

func contentTypeFromKey(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	case ".pdf":
		return "application/pdf"
	}
	return "application/octet-stream"
}
