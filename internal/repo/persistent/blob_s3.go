package persistent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andreyxaxa/Image-Captioner/pkg/s3client"
	"github.com/andreyxaxa/Image-Captioner/pkg/types/errs"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type BlobRepo struct {
	*s3client.S3Client
	bucket  string
	baseURL string
}

// NewBlobRepo serves URLs under publicURL, or under the conventional
// https://<bucket>.s3.amazonaws.com when publicURL is empty.
func NewBlobRepo(s3c *s3client.S3Client, bucket, publicURL string) *BlobRepo {
	return &BlobRepo{
		S3Client: s3c,
		bucket:   bucket,
		baseURL:  PublicBaseURL(bucket, publicURL),
	}
}

func PublicBaseURL(bucket, publicURL string) string {
	if publicURL != "" {
		return strings.TrimRight(publicURL, "/")
	}

	return fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
}

func (r *BlobRepo) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := r.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("BlobRepo - Put - r.Client.PutObject: %w", err)
	}

	return nil
}

func (r *BlobRepo) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := r.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("BlobRepo - Get - %s: %w", key, errs.ErrBlobNotFound)
		}
		return nil, fmt.Errorf("BlobRepo - Get - r.Client.GetObject: %w", err)
	}
	defer result.Body.Close()

	b, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("BlobRepo - Get - io.ReadAll: %w", err)
	}

	return b, nil
}

func (r *BlobRepo) Exists(ctx context.Context, key string) (bool, error) {
	_, err := r.Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, fmt.Errorf("BlobRepo - Exists - r.Client.HeadObject: %w", err)
	}

	return true, nil
}

func (r *BlobRepo) URLFor(key string) string {
	return r.baseURL + "/" + key
}
