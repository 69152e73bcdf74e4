// ABOUTME: ULID generation helper using crypto/rand for transcript entry IDs.
// ABOUTME: Entropy is monotonic so entries created in the same millisecond still sort in arrival order.
package session

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

var entropy = &ulid.LockedMonotonicReader{MonotonicReader: ulid.Monotonic(rand.Reader, 0)}

// NewULID generates a new ULID for the given instant. IDs generated within
// one millisecond increase strictly.
func NewULID(at time.Time) ulid.ULID {
	return ulid.MustNew(ulid.Timestamp(at), entropy)
}
