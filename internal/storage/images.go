// Package storage uploads book cover images to an S3-compatible bucket and
// removes them again when the book is deleted.
package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"BOOKWORM_BACK-END/internal/apperr"
	appconfig "BOOKWORM_BACK-END/internal/config"
	"BOOKWORM_BACK-END/internal/utils"
)

// MaxImageBytes caps a decoded or downloaded image.
const MaxImageBytes = 10 << 20

// ImageStore hosts book images and hands back their public URLs.
type ImageStore interface {
	Upload(ctx context.Context, source string) (string, error)
	Delete(ctx context.Context, url string) error
}

type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// swapped in tests
var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

var extensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
	"image/bmp":     ".bmp",
}

// S3ImageStore stores images as public objects in one bucket.
type S3ImageStore struct {
	client     objectAPI
	bucket     string
	publicBase string
	httpClient *http.Client
	clock      utils.Clock
}

// NewS3ImageStore builds a client for cfg. publicBase is the URL prefix the
// bucket's objects are served under.
func NewS3ImageStore(ctx context.Context, cfg appconfig.StorageConfig, publicBase string) (*S3ImageStore, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3ImageStore(client, cfg.Bucket, publicBase, utils.NewRealClock()), nil
}

func newS3ImageStore(client objectAPI, bucket, publicBase string, clock utils.Clock) *S3ImageStore {
	return &S3ImageStore{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		httpClient: newPublicHTTPClient(),
		clock:      clock,
	}
}

// Upload accepts a data URI, a bare base64 payload or an http(s) URL and
// returns the public URL of the stored copy.
func (s *S3ImageStore) Upload(ctx context.Context, source string) (string, error) {
	data, contentType, err := s.readSource(ctx, strings.TrimSpace(source))
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", apperr.Validation("image must be an image file")
	}

	key := s.storageKey(extensions[contentType])
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.publicBase + "/" + key, nil
}

// Delete removes the object behind url. URLs hosted elsewhere are ignored.
func (s *S3ImageStore) Delete(ctx context.Context, url string) error {
	key, ok := s.KeyFromURL(url)
	if !ok {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// KeyFromURL returns the object key of a URL served from this store.
func (s *S3ImageStore) KeyFromURL(url string) (string, bool) {
	prefix := s.publicBase + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	return key, key != ""
}

func (s *S3ImageStore) storageKey(ext string) string {
	d := s.clock.NowUtc()
	return fmt.Sprintf("books/%04d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}

func (s *S3ImageStore) readSource(ctx context.Context, source string) ([]byte, string, error) {
	switch {
	case source == "":
		return nil, "", apperr.Validation("image is required")
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return s.download(ctx, source)
	case strings.HasPrefix(source, "data:"):
		return decodeDataURI(source)
	default:
		data, err := decodeBase64(source)
		if err != nil {
			return nil, "", err
		}
		return data, http.DetectContentType(data), nil
	}
}

func (s *S3ImageStore) download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", apperr.Validation("invalid image url")
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, errBlockedAddress) {
			return nil, "", apperr.Validation("image url must point to a public host")
		}
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", apperr.Validation(fmt.Sprintf("could not fetch image: status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, "", tooLarge()
	}

	contentType := mediaType(resp.Header.Get("Content-Type"))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mediaType(http.DetectContentType(data))
	}
	return data, contentType, nil
}

// decodeDataURI handles data:<mime>;base64,<payload>.
func decodeDataURI(uri string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, "", apperr.Validation("image data URI must be base64 encoded")
	}
	data, err := decodeBase64(payload)
	if err != nil {
		return nil, "", err
	}
	contentType := mediaType(strings.TrimSuffix(header, ";base64"))
	if contentType == "" {
		contentType = mediaType(http.DetectContentType(data))
	}
	return data, contentType, nil
}

func decodeBase64(payload string) ([]byte, error) {
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes+2 {
		return nil, tooLarge()
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
	}
	if err != nil {
		return nil, apperr.Validation("image is not valid base64")
	}
	if len(data) > MaxImageBytes {
		return nil, tooLarge()
	}
	return data, nil
}

func mediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

func tooLarge() error {
	return apperr.Validation(fmt.Sprintf("image exceeds %d bytes", MaxImageBytes))
}
