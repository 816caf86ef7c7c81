package refnum

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var when = time.Date(2026, 7, 4, 9, 30, 0, 0, time.UTC)

func TestReference(t *testing.T) {
	ref, err := Reference("BC", when)
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^BC-2026-[0-9A-F]{8}$`), ref)
}

func TestReferenceIsRandom(t *testing.T) {
	seen := make(map[string]bool)
	for range 50 {
		ref, err := Reference("AMB", when)
		require.NoError(t, err)
		require.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true
	}
}

func TestRandomIssue(t *testing.T) {
	n, err := RandomIssue("CED-")
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^CED-[0-9A-F]{8}$`), n)
}

func TestSequencePattern(t *testing.T) {
	require.Equal(t, "BP-2026-%", SequencePattern("BP", when))
}

func TestNextInSequence(t *testing.T) {
	t.Run("starts at one", func(t *testing.T) {
		n, err := NextInSequence("BP", when, "")
		require.NoError(t, err)
		require.Equal(t, "BP-2026-00001", n)
	})

	t.Run("increments within the year", func(t *testing.T) {
		n, err := NextInSequence("BP", when, "BP-2026-00041")
		require.NoError(t, err)
		require.Equal(t, "BP-2026-00042", n)
	})

	t.Run("restarts on a new year", func(t *testing.T) {
		n, err := NextInSequence("BP", when, "BP-2025-00977")
		require.NoError(t, err)
		require.Equal(t, "BP-2026-00001", n)
	})

	t.Run("rejects malformed carryover", func(t *testing.T) {
		_, err := NextInSequence("BP", when, "BP2026-41")
		require.Error(t, err)
	})
}
