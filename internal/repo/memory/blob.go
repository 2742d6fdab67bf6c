package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/andreyxaxa/Image-Captioner/pkg/types/errs"
)

type object struct {
	data        []byte
	contentType string
}

type BlobRepo struct {
	mu      sync.Mutex
	objects map[string]object
	puts    int

	baseURL string

	// PutErr and GetErr, when set, are returned by every Put/Get call.
	PutErr error
	GetErr error
}

func NewBlobRepo(baseURL string) *BlobRepo {
	return &BlobRepo{
		objects: make(map[string]object),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (r *BlobRepo) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("memory.BlobRepo - Put: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.PutErr != nil {
		return fmt.Errorf("memory.BlobRepo - Put: %w", r.PutErr)
	}

	r.objects[key] = object{data: append([]byte(nil), data...), contentType: contentType}
	r.puts++

	return nil
}

func (r *BlobRepo) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("memory.BlobRepo - Get: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.GetErr != nil {
		return nil, fmt.Errorf("memory.BlobRepo - Get: %w", r.GetErr)
	}

	obj, ok := r.objects[key]
	if !ok {
		return nil, fmt.Errorf("memory.BlobRepo - Get - %s: %w", key, errs.ErrBlobNotFound)
	}

	return append([]byte(nil), obj.data...), nil
}

func (r *BlobRepo) Exists(_ context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.objects[key]

	return ok, nil
}

func (r *BlobRepo) URLFor(key string) string {
	return r.baseURL + "/" + key
}

// Delete removes a blob so tests can simulate a missing original.
func (r *BlobRepo) Delete(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.objects, key)
}

// Puts counts successful writes.
func (r *BlobRepo) Puts() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.puts
}

func (r *BlobRepo) ContentType(key string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.objects[key].contentType
}
