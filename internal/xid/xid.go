// Package xid mints prefixed opaque identifiers for rows that have no
// natural key: notification events, payment attempts, audit entries and
// seeded discounts.
package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// New returns "<prefix>-<unixnano>-<hex>". The timestamp keeps ids roughly
// sortable by creation; the random suffix makes collisions implausible even
// within a nanosecond.
func New(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), hex.EncodeToString(buf))
}
