package vault

import (
	"context"
	"sync"
)

// Memory keeps attachments in a map. Used by unit tests and local runs
// without an S3 endpoint.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

func (v *Memory) Store(ctx context.Context, dir string, up Upload) (string, error) {
	key := StoredName(dir, up.Filename)
	v.mu.Lock()
	defer v.mu.Unlock()
	data := make([]byte, len(up.Data))
	copy(data, up.Data)
	v.files[key] = data
	return key, nil
}

func (v *Memory) Delete(ctx context.Context, storedPath string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.files, storedPath)
	return nil
}

func (v *Memory) URL(ctx context.Context, storedPath string) (string, error) {
	return "memory://" + storedPath, nil
}

// Has reports whether a file is stored. Test helper.
func (v *Memory) Has(storedPath string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.files[storedPath]
	return ok
}

// Len reports how many files are stored. Test helper.
func (v *Memory) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.files)
}
