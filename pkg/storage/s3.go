package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Storage uploads files to an S3-compatible bucket.
type S3Storage struct {
	client    objectAPI
	presigner presignAPI
	now       func() time.Time
	cfg       Config
}

// New creates an S3Storage with static credentials.
func New(cfg Config) (*S3Storage, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.Region = cfg.Region
			o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		},
	}
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		})
	}

	client := s3.New(s3.Options{}, opts...)
	return &S3Storage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		now:       time.Now,
		cfg:       cfg,
	}, nil
}

type putOptions struct {
	runID       string
	contentType string
}

// Option configures an upload.
type Option func(*putOptions)

// WithRunID prefixes the object name with the campaign run ID.
func WithRunID(id string) Option {
	return func(o *putOptions) {
		o.runID = id
	}
}

// WithContentType overrides the content type derived from the file extension.
func WithContentType(ct string) Option {
	return func(o *putOptions) {
		o.contentType = ct
	}
}

// UploadFile uploads the local file at name.
func (s *S3Storage) UploadFile(ctx context.Context, name string, opts ...Option) (*FileInfo, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return s.Put(ctx, filepath.Base(name), f, st.Size(), opts...)
}

// Put uploads size bytes from r under a key derived from name.
func (s *S3Storage) Put(ctx context.Context, name string, r io.Reader, size int64, opts ...Option) (*FileInfo, error) {
	if size <= 0 {
		return nil, ErrEmptyFile
	}

	var o putOptions
	for _, opt := range opts {
		opt(&o)
	}
	contentType := o.contentType
	if contentType == "" {
		contentType = contentTypeOf(name)
	}

	key := s.buildKey(name, o.runID)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrUploadFailed)
	}

	info := &FileInfo{Key: key, Size: size, ContentType: contentType}
	if u, err := s.URL(ctx, key); err == nil {
		info.URL = u
	}
	return info, nil
}

// URL returns a pre-signed download URL for key.
func (s *S3Storage) URL(ctx context.Context, key string) (string, error) {
	res, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(s.cfg.Bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", path.Base(key))),
	}, func(po *s3.PresignOptions) {
		po.Expires = s.cfg.URLExpiry
	})
	if err != nil {
		return "", wrapS3Error(err, ErrPresignFailed)
	}
	return res.URL, nil
}

// buildKey returns {prefix}/{date}/{runID}-{name}.
func (s *S3Storage) buildKey(name, runID string) string {
	var parts []string
	if p := sanitizePathSegment(s.cfg.Prefix); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, s.now().UTC().Format(time.DateOnly))

	file := sanitizePathSegment(name)
	if id := sanitizePathSegment(runID); id != "" {
		file = id + "-" + file
	}
	return strings.Join(append(parts, file), "/")
}

func contentTypeOf(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}

var pathSegmentRegex = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// sanitizePathSegment strips traversal sequences and unsafe characters.
func sanitizePathSegment(segment string) string {
	segment = strings.Trim(segment, " /\\")
	segment = strings.ReplaceAll(segment, "..", "")
	segment = pathSegmentRegex.ReplaceAllString(segment, "_")
	return url.PathEscape(segment)
}
