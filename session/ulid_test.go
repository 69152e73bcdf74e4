// ABOUTME: Tests for transcript entry ID generation.
// ABOUTME: Verifies timestamps round-trip and same-millisecond IDs increase.
package session

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestNewULIDTimestamp(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 8_000_000, time.UTC)
	id := NewULID(at)
	if got := ulid.Time(id.Time()); !got.Equal(at) {
		t.Errorf("ULID time = %v, want %v", got, at)
	}
}

func TestNewULIDMonotonicWithinMillisecond(t *testing.T) {
	at := time.Now()
	prev := NewULID(at)
	for i := 0; i < 100; i++ {
		next := NewULID(at)
		if next.Compare(prev) <= 0 {
			t.Fatalf("id %d not increasing: %s after %s", i, next, prev)
		}
		prev = next
	}
}
