package utils

import (
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/scythe504/speedboard/internal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// monotonic hands out strictly increasing values, bumping past the last one
// when the clock has not moved.
type monotonic struct{ last atomic.Int64 }

func (m *monotonic) next(now int64) int64 {
	for {
		last := m.last.Load()
		next := now
		if next <= last {
			next = last + 1
		}
		if m.last.CompareAndSwap(last, next) {
			return next
		}
	}
}

var (
	sessionClock monotonic
	roomClock    monotonic
)

// NewConnID returns a fresh id for one live connection.
func NewConnID() string {
	return uuid.NewString()
}

// NewSessionID encodes the current time in base36. Values are strictly
// increasing within the process, so two rounds started in the same
// nanosecond still get different ids.
func NewSessionID() string {
	return strconv.FormatInt(nextSessionNanos(time.Now().UnixNano()), 36)
}

func nextSessionNanos(now int64) int64 {
	return sessionClock.next(now)
}

// NewRoomID builds the id of a promoted room, e.g. "SB-m1x2y3z4". Two
// promotions in the same millisecond still get different ids.
func NewRoomID(now time.Time) string {
	return internal.ActiveRoomPrefix + strconv.FormatInt(roomClock.next(now.UnixMilli()), 36)
}

// =============================================================================
// CHAT
// =============================================================================

// SanitizeChat strips control characters, trims whitespace and caps the
// text at MaxChatLength runes.
func SanitizeChat(text string) string {
	clean := strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text))

	runes := []rune(clean)
	if len(runes) > internal.MaxChatLength {
		return string(runes[:internal.MaxChatLength])
	}
	return clean
}
