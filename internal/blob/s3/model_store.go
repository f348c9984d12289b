package s3blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/quantfold/pmarb/internal/domain"
)

// ModelStore implements domain.ModelStore using an S3-compatible backend.
// Trained classifier snapshots are stored under models/{name}.
type ModelStore struct {
	client *s3.Client
	bucket string
}

// NewModelStore creates a ModelStore that reads and writes snapshots in
// the given client's configured bucket.
func NewModelStore(c *Client) *ModelStore {
	return &ModelStore{
		client: c.S3(),
		bucket: c.Bucket(),
	}
}

func modelKey(name string) string { return "models/" + name }

// Put uploads a snapshot as a single PutObject request.
func (s *ModelStore) Put(ctx context.Context, name string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(modelKey(name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3blob: put model %s: %w", name, err)
	}
	return nil
}

// Get retrieves a snapshot by name. Returns domain.ErrNotFound if the
// object does not exist.
func (s *ModelStore) Get(ctx context.Context, name string) ([]byte, error) {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(modelKey(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("s3blob: get model %s: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("s3blob: get model %s: %w", name, err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("s3blob: read model %s: %w", name, err)
	}
	return data, nil
}

// List returns the names of all stored model snapshots, following
// pagination until exhausted.
func (s *ModelStore) List(ctx context.Context) ([]string, error) {
	var names []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String("models/"),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3blob: list models: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			names = append(names, key[len("models/"):])
		}
	}

	return names, nil
}

// isNotFound returns true when the error indicates the requested S3 object
// does not exist. It checks for both the SDK typed error (NoSuchKey) and
// the generic 404 response.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	// HeadObject does not return NoSuchKey; it returns a generic 404.
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	// Fallback: some S3-compatible providers return a ResponseError with
	// HTTP 404. We check via the smithy HTTP response interface.
	type httpResponseError interface {
		HTTPStatusCode() int
	}
	var httpErr httpResponseError
	if errors.As(err, &httpErr) && httpErr.HTTPStatusCode() == 404 {
		return true
	}

	return false
}
