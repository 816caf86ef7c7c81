// Package refnum generates the public identifiers an application carries: the
// tracking reference every record gets at submission, and the official
// document numbers issued on approval. Generation is pure; uniqueness is the
// store's job and callers retry on conflict.
package refnum

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	dErrors "barangaylink/pkg/domain-errors"
)

// MaxAttempts bounds how many times a caller should retry generation against
// store uniqueness conflicts before giving up.
const MaxAttempts = 5

func randomHex(n int) (string, error) {
	buf := make([]byte, (n+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "read random bytes")
	}
	return strings.ToUpper(hex.EncodeToString(buf))[:n], nil
}

// Reference builds a tracking reference PREFIX-YYYY-XXXXXXXX where the year
// comes from submission time and the tail is 8 random upper hex characters.
func Reference(prefix string, now time.Time) (string, error) {
	tail, err := randomHex(8)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%s", prefix, now.Year(), tail), nil
}

// RandomIssue builds a document number of the form PREFIX + 8 random upper
// hex characters, e.g. BC-4F21A9C0.
func RandomIssue(prefix string) (string, error) {
	tail, err := randomHex(8)
	if err != nil {
		return "", err
	}
	return prefix + tail, nil
}

// SequencePattern returns the store lookup pattern for a year's sequence
// numbers, e.g. "BP-2026-%".
func SequencePattern(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%d-%%", prefix, now.Year())
}

// NextInSequence builds the next document number in a per-year counter,
// PREFIX-YYYY-NNNNN. last is the highest number already issued this year
// (empty when none); a last value from a previous year restarts at 00001.
func NextInSequence(prefix string, now time.Time, last string) (string, error) {
	year := now.Year()
	next := 1
	if last != "" {
		parts := strings.Split(last, "-")
		if len(parts) != 3 {
			return "", dErrors.Newf(dErrors.CodeInternal, "malformed issued number %q", last)
		}
		lastYear, err := strconv.Atoi(parts[1])
		if err != nil {
			return "", dErrors.Newf(dErrors.CodeInternal, "malformed issued number %q", last)
		}
		if lastYear == year {
			seq, err := strconv.Atoi(parts[2])
			if err != nil {
				return "", dErrors.Newf(dErrors.CodeInternal, "malformed issued number %q", last)
			}
			next = seq + 1
		}
	}
	return fmt.Sprintf("%s-%d-%05d", prefix, year, next), nil
}
