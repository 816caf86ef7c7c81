package vault

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	dErrors "barangaylink/pkg/domain-errors"
)

func upload(name string, size int) Upload {
	return Upload{
		Filename:    name,
		ContentType: "application/octet-stream",
		Size:        int64(size),
		Data:        []byte(strings.Repeat("x", size)),
	}
}

func TestValidateUpload(t *testing.T) {
	t.Run("accepts the allowed extensions", func(t *testing.T) {
		for _, name := range []string{"scan.pdf", "photo.jpg", "photo.JPEG", "plan.png"} {
			require.NoError(t, ValidateUpload(upload(name, 128), 0), name)
		}
	})

	t.Run("rejects other extensions", func(t *testing.T) {
		for _, name := range []string{"run.exe", "notes.docx", "archive.zip", "noext"} {
			err := ValidateUpload(upload(name, 128), 0)
			require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), name)
		}
	})

	t.Run("rejects oversized files", func(t *testing.T) {
		err := ValidateUpload(upload("big.pdf", 1025), 1024)
		require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects empty files", func(t *testing.T) {
		err := ValidateUpload(upload("empty.pdf", 0), 0)
		require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestStoredName(t *testing.T) {
	name := StoredName("applications/abc", "My Valid ID.PDF")
	require.True(t, strings.HasPrefix(name, "applications/abc/"))
	require.True(t, strings.HasSuffix(name, ".pdf"))
	require.NotEqual(t, name, StoredName("applications/abc", "My Valid ID.PDF"))
}

func TestMemoryVault(t *testing.T) {
	ctx := context.Background()
	v := NewMemory()

	path, err := v.Store(ctx, "applications/abc", upload("scan.pdf", 16))
	require.NoError(t, err)
	require.True(t, v.Has(path))
	require.Equal(t, 1, v.Len())

	url, err := v.URL(ctx, path)
	require.NoError(t, err)
	require.Equal(t, "memory://"+path, url)

	require.NoError(t, v.Delete(ctx, path))
	require.False(t, v.Has(path))

	t.Run("deleting a missing file is not an error", func(t *testing.T) {
		require.NoError(t, v.Delete(ctx, "applications/abc/gone.pdf"))
	})
}
