package session

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"salehero-chat/internal/models"
)

// MarkerDelimiter separates user content from the correlation token in
// outbound frames sent before the local identity is known.
const MarkerDelimiter = "::"

// resolver discovers which broadcast messages belong to the local client. The
// broker relays to every subscriber without telling a client which echo is its
// own, so outbound content is tagged with a per-connection token until the
// first echo comes back and reveals the server-assigned sender name.
type resolver struct {
	token    string
	identity string
	resolved bool
}

func newResolver() *resolver {
	return &resolver{token: newCorrelationToken()}
}

func newCorrelationToken() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}

// tag appends the correlation marker to outbound content while the identity
// is still unknown. Once resolved, content goes out unmodified.
func (r *resolver) tag(content string) string {
	if r.resolved {
		return content
	}
	return content + MarkerDelimiter + r.token
}

// inspect checks an inbound frame for the session's own marker. On a match it
// records the sender as the local identity and returns a cleaned copy with
// the marker stripped; every other frame passes through untouched.
func (r *resolver) inspect(msg models.Message) (models.Message, bool) {
	if r.resolved || msg.Type != models.KindChat {
		return msg, false
	}
	if !strings.Contains(msg.Content, MarkerDelimiter+r.token) {
		return msg, false
	}
	r.resolved = true
	r.identity = msg.Sender
	msg.Content = StripMarker(msg.Content)
	return msg, true
}

// StripMarker truncates content at the first marker delimiter. Content whose
// text legitimately contains the delimiter sequence is truncated too; the
// protocol does not escape it.
func StripMarker(content string) string {
	if idx := strings.Index(content, MarkerDelimiter); idx >= 0 {
		return content[:idx]
	}
	return content
}
