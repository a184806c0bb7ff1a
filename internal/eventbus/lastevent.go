package eventbus

import (
	"strconv"
	"strings"
)

// ParseLastEventID extracts the sequence number from an SSE Last-Event-ID
// header value, matching the original client's parsing: take the final
// colon-separated component and parse it as the sequence, working
// uniformly for both the bare-sequence form used by non-message events
// and the root:message:sequence form used by message deltas/done.
func ParseLastEventID(raw string) (uint64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	parts := strings.Split(raw, ":")
	last := parts[len(parts)-1]
	seq, err := strconv.ParseUint(last, 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}
