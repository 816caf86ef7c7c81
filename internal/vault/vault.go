// Package vault stores citizen-uploaded attachment files. The service layer
// stages files here before persisting the application record and purges them
// when records are deleted or files replaced.
package vault

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	dErrors "barangaylink/pkg/domain-errors"
)

// DefaultMaxUploadBytes caps attachment size when config does not override it.
const DefaultMaxUploadBytes = 10 << 20

var allowedExtensions = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// Upload is one attachment file as received from the multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// Vault persists attachment files keyed by opaque path.
//
//go:generate mockgen -source=vault.go -destination=../../mocks/vault_mock.go -package=mocks
type Vault interface {
	// Store writes the upload under dir and returns the stored path.
	Store(ctx context.Context, dir string, up Upload) (string, error)
	// Delete removes a stored file. Missing files are not an error; delete is
	// used for best-effort cleanup.
	Delete(ctx context.Context, storedPath string) error
	// URL returns a time-limited download link for a stored file.
	URL(ctx context.Context, storedPath string) (string, error)
}

// ValidateUpload enforces the attachment policy: pdf/jpg/jpeg/png only, size
// capped. maxBytes <= 0 selects the default cap.
func ValidateUpload(up Upload, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	ext := strings.ToLower(path.Ext(up.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return dErrors.Newf(dErrors.CodeInvalidInput,
			"file %q has unsupported type, allowed: pdf, jpg, jpeg, png", up.Filename)
	}
	if up.Size > maxBytes {
		return dErrors.Newf(dErrors.CodeInvalidInput,
			"file %q exceeds the %d byte limit", up.Filename, maxBytes)
	}
	if up.Size == 0 || len(up.Data) == 0 {
		return dErrors.Newf(dErrors.CodeInvalidInput, "file %q is empty", up.Filename)
	}
	return nil
}

// StoredName builds a collision-free object name preserving the original
// extension.
func StoredName(dir, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%s%s", strings.Trim(dir, "/"), uuid.NewString(), ext)
}
