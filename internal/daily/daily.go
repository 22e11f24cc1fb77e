// Package daily implements the product-of-the-day selection policy: every
// player gets the same product on the same UTC date.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/robalobadob/priceguess/internal/game"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Index returns a deterministic index for a date using HMAC(salt, YYYY-MM-DD) % n.
func Index(date time.Time, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// first 8 bytes as uint64 for the modulus
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}

// Selector returns a game.Selector that picks the product of the day for the
// time reported by now (time.Now when nil).
func Selector(salt string, now func() time.Time) game.Selector {
	if now == nil {
		now = time.Now
	}
	return func(n int) int { return Index(now(), salt, n) }
}
