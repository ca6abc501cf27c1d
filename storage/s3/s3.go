// Package s3 implements the "s3" storage backend on Amazon S3 and
// S3-compatible services (MinIO, LocalStack).
package s3

import (
	"context"
	"io"
	"iter"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/kbukum/memeforanyone/logger"
	"github.com/kbukum/memeforanyone/storage"
)

func init() {
	storage.RegisterDriver(storage.BackendS3, func(ctx context.Context, cfg storage.Config, log *logger.Logger) (storage.ObjectStore, error) {
		s, err := NewStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Debug("s3 store ready", logger.Fields(
			"bucket", cfg.Root,
			"region", s.client.Options().Region,
			"endpoint", cfg.S3Endpoint,
		))
		return s, nil
	})
}

// Store implements storage.ObjectStore on one bucket.
type Store struct {
	client *awss3.Client
	bucket string
}

var (
	_ storage.ObjectStore = (*Store)(nil)
	_ storage.Pinger      = (*Store)(nil)
)

// NewStore creates an S3 client for cfg.Root as the bucket. Region, endpoint
// and static credentials are applied only when set; otherwise the SDK's
// default chain (environment, shared config, instance role) decides.
func NewStore(ctx context.Context, cfg storage.Config) (*Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, storage.Otherf("init", cfg.Root, "load aws config: %w", err)
	}

	var s3Opts []func(*awss3.Options)
	if cfg.S3Endpoint != "" {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
			// S3-compatible stores often reject the newer default checksums.
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
			o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
		})
	}

	return NewStoreFromClient(awss3.NewFromConfig(awsCfg, s3Opts...), cfg.Root), nil
}

// NewStoreFromClient binds an existing client to bucket.
func NewStoreFromClient(client *awss3.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// Bucket returns the bound bucket name.
func (s *Store) Bucket() string { return s.bucket }

// Ping issues HeadBucket. A missing bucket is a failure here, not a miss.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &awss3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return storage.Otherf("ping", s.bucket, "head bucket: %w", err)
	}
	return nil
}

// List pages through ListObjectsV2, yielding keys as each page arrives.
func (s *Store) List(ctx context.Context, prefix string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		p := awss3.NewListObjectsV2Paginator(s.client, &awss3.ListObjectsV2Input{
			Bucket: aws.String(s.bucket),
			Prefix: aws.String(prefix),
		})
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				yield("", classify("list", prefix, err))
				return
			}
			for _, obj := range page.Contents {
				if !yield(aws.ToString(obj.Key), nil) {
					return
				}
			}
		}
	}
}

// Get streams the object body.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classify("get", key, err)
	}
	return out.Body, nil
}

// Put uploads r. size is sent as Content-Length when known.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	in := &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if size >= 0 {
		in.ContentLength = aws.Int64(size)
	}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		in.ContentType = aws.String(ct)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return classify("put", key, err)
	}
	return nil
}

// Stat issues HeadObject.
func (s *Store) Stat(ctx context.Context, key string) (storage.Metadata, error) {
	out, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return storage.Metadata{}, classify("stat", key, err)
	}
	md := storage.Metadata{
		Path:        key,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
		ETag:        strings.Trim(aws.ToString(out.ETag), `"`),
	}
	if out.LastModified != nil {
		md.LastModified = *out.LastModified
	}
	return md, nil
}

// Delete issues DeleteObject. S3 reports success for absent keys.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return classify("delete", key, err)
	}
	return nil
}
