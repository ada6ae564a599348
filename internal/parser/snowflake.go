package parser

import (
	"fmt"
	"math/bits"
	"strconv"
	"time"

	"github.com/IshaanNene/PostPulse/internal/types"
)

// The identifier's trailing digits encode its creation time in the top bits.
// Both constants come from the site's identifier scheme and must not change
// unless the site changes it.
const (
	snowflakeDigits   = 19
	snowflakeTimeBits = 41
)

// DecodeTime returns the publish time embedded in a post identifier, truncated
// to whole seconds, in local time.
func DecodeTime(urn string) (time.Time, error) {
	if len(urn) < snowflakeDigits {
		return time.Time{}, fmt.Errorf("identifier %q shorter than %d characters", urn, snowflakeDigits)
	}
	id, err := strconv.ParseUint(urn[len(urn)-snowflakeDigits:], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("identifier %q: %w", urn, err)
	}
	ms := id
	if n := bits.Len64(id); n > snowflakeTimeBits {
		ms = id >> (n - snowflakeTimeBits)
	}
	return time.Unix(int64(ms/1000), 0).In(time.Local), nil
}

// DecodeTimeString is DecodeTime rendered with types.TimeLayout.
// Undecodable identifiers yield "".
func DecodeTimeString(urn string) string {
	t, err := DecodeTime(urn)
	if err != nil {
		return ""
	}
	return types.FormatTime(t)
}
