package checkpoint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path/filepath"
)

var (
	// ErrInvalidKey indicates an empty checkpoint key.
	ErrInvalidKey = errors.New("checkpoint: invalid key")

	// ErrCorrupt indicates a stored value that is not a non-negative integer.
	ErrCorrupt = errors.New("checkpoint: corrupt value")

	// ErrStoreFailed indicates the backend could not be read or written.
	ErrStoreFailed = errors.New("checkpoint: store operation failed")
)

// Store persists the next unprocessed job index per key.
type Store interface {
	// Load returns the saved index, or 0 when nothing is saved.
	Load(ctx context.Context, key string) (int, error)
	// Save records next as the first unprocessed index.
	Save(ctx context.Context, key string, next int) error
	// Clear removes the checkpoint. Clearing a missing key is not an error.
	Clear(ctx context.Context, key string) error
}

// Key derives a stable checkpoint key from the input file path.
func Key(inputPath string) string {
	if abs, err := filepath.Abs(inputPath); err == nil {
		inputPath = abs
	}
	sum := sha256.Sum256([]byte(inputPath))
	return hex.EncodeToString(sum[:])[:16]
}
