// Package store implements the key-path document store the attendance core
// persists to. Paths are "collection/id" pairs; bodies are JSON documents.
// Writes are atomic per path only; CompareAndSwap is the single conditional
// primitive callers use to gate uniqueness.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPath is returned for paths that are not "collection/id".
var ErrInvalidPath = errors.New("store: path must be collection/id")

// Documents is the contract every backend implements.
type Documents interface {
	// Get returns the body at path, or nil when nothing is stored there.
	Get(ctx context.Context, path string) ([]byte, error)
	// List returns every document of a collection keyed by id.
	List(ctx context.Context, collection string) (map[string][]byte, error)
	// Set writes doc at path, replacing any previous body.
	Set(ctx context.Context, path string, doc []byte) error
	// Update merges top-level fields into the document at path.
	Update(ctx context.Context, path string, fields map[string]any) error
	// Push stores doc under a generated id and returns that id.
	Push(ctx context.Context, collection string, doc []byte) (string, error)
	// CompareAndSwap replaces the body at path with next only if the current
	// body equals old. A nil old means "absent"; a nil next deletes.
	CompareAndSwap(ctx context.Context, path string, old, next []byte) (bool, error)
	// Delete removes the document at path; missing paths are not an error.
	Delete(ctx context.Context, path string) error
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}

// Path joins a collection and a record id.
func Path(collection, id string) string {
	return collection + "/" + id
}

func splitPath(path string) (collection, id string, err error) {
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return parts[0], parts[1], nil
}

// mergeFields applies fields on top of the JSON object in doc.
func mergeFields(doc []byte, fields map[string]any) ([]byte, error) {
	obj := map[string]any{}
	if len(doc) > 0 {
		if err := json.Unmarshal(doc, &obj); err != nil {
			return nil, fmt.Errorf("store: decode document: %w", err)
		}
	}
	for k, v := range fields {
		obj[k] = v
	}
	return json.Marshal(obj)
}
