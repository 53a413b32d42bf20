// Package receiptstore хранит файлы квитанций об оплате в S3-совместимом
// хранилище и выдаёт ограниченные по времени ссылки на просмотр.
package receiptstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/ugc-tracker/internal/config"
)

// ErrEmptyKey путь объекта не задан.
var ErrEmptyKey = errors.New("empty object key")

// ObjectClient подмножество *s3.Client, используемое хранилищем.
type ObjectClient interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Presigner подмножество *s3.PresignClient.
type Presigner interface {
	PresignGetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Store хранилище файлов квитанций.
type Store struct {
	client    ObjectClient
	presigner Presigner
	bucket    string
	urlTTL    time.Duration
}

// New создаёт Store поверх S3-клиента, собранного из конфига.
func New(cfg config.S3) *Store {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	client := s3.New(opts)
	return NewWithClients(client, s3.NewPresignClient(client), cfg.Bucket, cfg.URLTTL)
}

// NewWithClients создаёт Store с заданными клиентами.
func NewWithClients(client ObjectClient, presigner Presigner, bucket string, urlTTL time.Duration) *Store {
	if urlTTL <= 0 {
		urlTTL = 10 * time.Minute
	}
	return &Store{client: client, presigner: presigner, bucket: bucket, urlTTL: urlTTL}
}

// NewKey формирует непрозрачный путь объекта для квитанции пользователя.
// Расширение берётся из исходного имени файла.
func NewKey(userID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join("receipts", userID, uuid.NewString()+ext)
}

// Put загружает файл квитанции.
func (s *Store) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	const op = "receiptstore.Put"
	if key == "" {
		return fmt.Errorf("%s: %w", op, ErrEmptyKey)
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Delete удаляет файл квитанции.
func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "receiptstore.Delete"
	if key == "" {
		return fmt.Errorf("%s: %w", op, ErrEmptyKey)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ViewURL выдаёт подписанную ссылку на просмотр файла, действующую urlTTL.
func (s *Store) ViewURL(ctx context.Context, key string) (string, time.Time, error) {
	const op = "receiptstore.ViewURL"
	if key == "" {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, ErrEmptyKey)
	}
	expires := time.Now().Add(s.urlTTL)
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.urlTTL))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return req.URL, expires, nil
}
