package photos

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
)

// Store keeps uploaded product photos and returns their public URL.
type Store interface {
	Put(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // optional, for S3-compatible providers
	PublicURL string // optional, e.g. a CDN prefix; defaults to the bucket URL
}

// S3Store writes photos to a bucket under offers/<uuid><ext>.
type S3Store struct {
	api       s3iface.S3API
	bucket    string
	publicURL string
}

// NewS3Store uses the default AWS credential chain (env, shared config, role).
func NewS3Store(cfg S3Config) (*S3Store, error) {
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return NewS3StoreWithAPI(s3.New(sess), cfg), nil
}

func NewS3StoreWithAPI(api s3iface.S3API, cfg S3Config) *S3Store {
	pub := strings.TrimRight(cfg.PublicURL, "/")
	if pub == "" {
		pub = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &S3Store{api: api, bucket: cfg.Bucket, publicURL: pub}
}

func (s *S3Store) Put(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	key := ObjectKey(filename)
	if contentType == "" {
		contentType = "image/jpeg"
	}
	_, err := s.api.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("unable to upload photo to S3: %w", err)
	}
	return s.publicURL + "/" + key, nil
}

// ObjectKey names a new object for an uploaded file, keeping its lower-cased extension.
func ObjectKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 8 {
		ext = ""
	}
	return "offers/" + uuid.NewString() + ext
}
