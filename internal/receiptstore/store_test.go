package receiptstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/ugc-tracker/internal/config"
)

type ClientMock struct {
	mock.Mock
}

func (m *ClientMock) PutObject(ctx context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, input)
	return &s3.PutObjectOutput{}, args.Error(0)
}

func (m *ClientMock) DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, input)
	return &s3.DeleteObjectOutput{}, args.Error(0)
}

type presignerFunc func(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)

func (f presignerFunc) PresignGetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return f(ctx, input, opts...)
}

func TestNewKey(t *testing.T) {
	k1 := NewKey("user-1", "Scan.PDF")
	k2 := NewKey("user-1", "Scan.PDF")
	assert.True(t, strings.HasPrefix(k1, "receipts/user-1/"))
	assert.True(t, strings.HasSuffix(k1, ".pdf"))
	assert.NotEqual(t, k1, k2)
}

func TestPut(t *testing.T) {
	client := new(ClientMock)
	store := NewWithClients(client, nil, "bucket", time.Minute)

	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		body, _ := io.ReadAll(in.Body)
		return *in.Bucket == "bucket" && *in.Key == "receipts/u/x.png" &&
			*in.ContentType == "image/png" && *in.ContentLength == 3 && string(body) == "png"
	})).Return(nil).Once()

	err := store.Put(context.Background(), "receipts/u/x.png", strings.NewReader("png"), 3, "image/png")
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestPutError(t *testing.T) {
	client := new(ClientMock)
	store := NewWithClients(client, nil, "bucket", time.Minute)
	client.On("PutObject", mock.Anything, mock.Anything).Return(errors.New("boom"))

	err := store.Put(context.Background(), "k", strings.NewReader(""), 0, "application/pdf")
	assert.Error(t, err)

	assert.ErrorIs(t, store.Put(context.Background(), "", strings.NewReader(""), 0, ""), ErrEmptyKey)
}

func TestDelete(t *testing.T) {
	client := new(ClientMock)
	store := NewWithClients(client, nil, "bucket", time.Minute)
	client.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return *in.Key == "receipts/u/x.png"
	})).Return(nil).Once()

	require.NoError(t, store.Delete(context.Background(), "receipts/u/x.png"))
	assert.ErrorIs(t, store.Delete(context.Background(), ""), ErrEmptyKey)
	client.AssertExpectations(t)
}

func TestViewURL(t *testing.T) {
	var gotExpires time.Duration
	presigner := presignerFunc(func(_ context.Context, in *s3.GetObjectInput, opts ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		var o s3.PresignOptions
		for _, fn := range opts {
			fn(&o)
		}
		gotExpires = o.Expires
		return &v4.PresignedHTTPRequest{URL: "https://s3.local/bucket/" + *in.Key + "?X-Amz-Signature=abc"}, nil
	})
	store := NewWithClients(nil, presigner, "bucket", 5*time.Minute)

	before := time.Now()
	url, expires, err := store.ViewURL(context.Background(), "receipts/u/x.png")
	require.NoError(t, err)
	assert.Equal(t, "https://s3.local/bucket/receipts/u/x.png?X-Amz-Signature=abc", url)
	assert.Equal(t, 5*time.Minute, gotExpires)
	assert.WithinDuration(t, before.Add(5*time.Minute), expires, time.Second)
}

func TestViewURLRealPresigner(t *testing.T) {
	store := New(config.S3{
		Endpoint:  "http://localhost:9000",
		Bucket:    "receipts",
		Region:    "us-east-1",
		AccessKey: "minio",
		SecretKey: "minio123",
		URLTTL:    2 * time.Minute,
	})

	url, _, err := store.ViewURL(context.Background(), "receipts/u/file.pdf")
	require.NoError(t, err)
	assert.Contains(t, url, "http://localhost:9000/receipts/receipts/u/file.pdf")
	assert.Contains(t, url, "X-Amz-Expires=120")
	assert.Contains(t, url, "X-Amz-Signature=")
}

func TestDefaultTTL(t *testing.T) {
	store := NewWithClients(nil, nil, "b", 0)
	assert.Equal(t, 10*time.Minute, store.urlTTL)
}
