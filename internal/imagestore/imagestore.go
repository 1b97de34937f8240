// Package imagestore uploads product images to S3-compatible object storage
// and hands back the public URLs stored on variants.
package imagestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sony/gobreaker/v2"

	"github.com/jayyveer/yarnbykrosh/pkg/circuitbreaker"
)

const MaxImageSize = 5 << 20 // 5 MiB

var (
	ErrImageTooLarge     = errors.New("image exceeds 5MB limit")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrStoreUnavailable  = errors.New("image store unavailable")
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base the storefront fetches images from, usually a
	// CDN or the minio endpoint itself.
	PublicURL string
}

type Store struct {
	client  *minio.Client
	cfg     Config
	breaker *gobreaker.CircuitBreaker[string]
	log     *slog.Logger
}

func New(cfg Config, log *slog.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}
	return &Store{
		client:  client,
		cfg:     cfg,
		breaker: circuitbreaker.New[string]("imagestore"),
		log:     log,
	}, nil
}

// EnsureBucket creates the bucket on first boot if it does not exist.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// Upload validates size and format, stores the image under a random key and
// returns its public URL. The content type is sniffed from the bytes, the
// client-supplied header is not trusted.
func (s *Store) Upload(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(data) > MaxImageSize {
		return "", ErrImageTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return "", ErrUnsupportedFormat
	}

	key := fmt.Sprintf("products/%s%s", uuid.NewString(), ext)

	url, err := s.breaker.Execute(func() (string, error) {
		_, putErr := s.client.PutObject(ctx, s.cfg.Bucket, key,
			bytes.NewReader(data), int64(len(data)),
			minio.PutObjectOptions{ContentType: contentType})
		if putErr != nil {
			return "", fmt.Errorf("put object: %w", putErr)
		}
		return s.PublicURL(key), nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", ErrStoreUnavailable
		}
		return "", err
	}

	s.log.InfoContext(ctx, "image uploaded", "key", key, "bytes", len(data))
	return url, nil
}

// Remove deletes an object given its public URL. Unknown URLs are ignored
// so stale references never block a variant delete.
func (s *Store) Remove(ctx context.Context, url string) error {
	key, ok := s.objectKey(url)
	if !ok {
		return nil
	}

	_, err := s.breaker.Execute(func() (string, error) {
		if rmErr := s.client.RemoveObject(ctx, s.cfg.Bucket, key, minio.RemoveObjectOptions{}); rmErr != nil {
			return "", fmt.Errorf("remove object: %w", rmErr)
		}
		return "", nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return ErrStoreUnavailable
		}
		return err
	}
	return nil
}

// PublicURL builds the storefront-facing URL for an object key.
func (s *Store) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s",
		strings.TrimSuffix(s.cfg.PublicURL, "/"), s.cfg.Bucket, key)
}

func (s *Store) objectKey(url string) (string, bool) {
	prefix := fmt.Sprintf("%s/%s/",
		strings.TrimSuffix(s.cfg.PublicURL, "/"), s.cfg.Bucket)
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	return path.Clean(key), key != ""
}
