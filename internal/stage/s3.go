package stage

import (
	"context"
	"io"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"go.uber.org/zap"
)

type S3Option func(*S3)

func S3WithRegion(region string) S3Option {
	return func(r *S3) {
		r.Region = region
	}
}

func S3WithBucket(bucket string) S3Option {
	return func(r *S3) {
		r.Bucket = bucket
	}
}

func S3WithPrefix(prefix string) S3Option {
	return func(r *S3) {
		r.Prefix = prefix
	}
}

func S3WithLogger(l *zap.Logger) S3Option {
	return func(r *S3) {
		r.logger = l
	}
}

func S3WithEndpoint(endpoint string) S3Option {
	return func(r *S3) {
		r.Endpoint = endpoint
	}
}

func S3WithForcePathStyle(forcePathStyle bool) S3Option {
	return func(r *S3) {
		r.ForcePathStyle = forcePathStyle
	}
}

// S3 stages files to an S3 bucket through the upload manager.
type S3 struct {
	logger   *zap.Logger
	uploader *s3manager.Uploader

	Endpoint       string
	Region         string
	Bucket         string
	Prefix         string
	ForcePathStyle bool
}

func NewS3(opts ...S3Option) (*S3, error) {
	r := &S3{
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(r)
	}

	cfg := &aws.Config{
		Region: aws.String(r.Region),
	}
	if r.Endpoint != "" {
		cfg.Endpoint = aws.String(r.Endpoint)
	}
	if r.ForcePathStyle {
		cfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	r.uploader = s3manager.NewUploader(sess)
	return r, nil
}

func (r *S3) Write(ctx context.Context, key string, reader io.Reader) error {
	fullKey := path.Join(r.Prefix, key)
	r.logger.Info("uploading object",
		zap.String("bucket", r.Bucket),
		zap.String("key", fullKey))

	_, err := r.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(r.Bucket),
		Key:    aws.String(fullKey),
		Body:   reader,
	})
	return err
}
