package s3

import (
	"Replicaide/pkg/blob"
	"Replicaide/pkg/response"
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/sirupsen/logrus"
)

const s3Service = "s3"

type Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint overrides the AWS endpoint, for S3 compatible stores.
	Endpoint string
}

type s3Client struct {
	client     *s3.S3
	uploader   *s3manager.Uploader
	bucketName string
	log        *logrus.Logger
}

func New(cfg Config, log *logrus.Logger) (blob.Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket name is required")
	}

	sess, err := newSession(cfg)
	if err != nil {
		return nil, err
	}

	return &s3Client{
		client:     s3.New(sess),
		uploader:   s3manager.NewUploader(sess),
		bucketName: cfg.Bucket,
		log:        log,
	}, nil
}

// Upload writes data to key p, replacing any existing object.
func (s *s3Client) Upload(ctx context.Context, data []byte, p string) (string, error) {
	if len(data) == 0 {
		return "", blob.ErrEmptyPayload
	}

	exists, err := s.exists(ctx, p)
	if err != nil {
		return "", err
	}

	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(p),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(p, data)),
	})
	if err != nil {
		return "", upstreamError(fmt.Errorf("upload %s: %w", p, err))
	}

	s.log.WithFields(logrus.Fields{
		"path":    p,
		"updated": exists,
		"size":    len(data),
	}).Debug("Uploaded blob to s3")

	return out.Location, nil
}

func (s *s3Client) exists(ctx context.Context, p string) (bool, error) {
	_, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(p),
	})
	if err == nil {
		return true, nil
	}

	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return false, nil
	}

	var aerr awserr.Error
	if errors.As(err, &aerr) && aerr.Code() == "NotFound" {
		return false, nil
	}

	return false, upstreamError(fmt.Errorf("lookup %s: %w", p, err))
}

func upstreamError(err error) error {
	status := 0
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) {
		status = reqErr.StatusCode()
	}
	return response.NewUpstreamError(s3Service, status, err)
}

func contentType(p string, data []byte) string {
	if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

func newSession(cfg Config) (*session.Session, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	return session.NewSession(awsCfg)
}
