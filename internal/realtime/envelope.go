package realtime

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/seplag/discoteca/internal/domain"
)

// AlbumTopic receives raw album DTOs whenever an album is created
const AlbumTopic = "/topic/albuns"

var errNoType = errors.New("notification has no type")

type envelope struct {
	Type      string          `json:"type"`
	Message   string          `json:"message"`
	Timestamp json.RawMessage `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
	Payload   json.RawMessage `json:"payload"`
}

// DecodeEnvelope parses one inbound frame body into a Notification.
// Envelopes look like {type, message, timestamp?, data?}; data may wrap the
// payload as {payload} or carry it directly. A typeless album on the album
// topic is reported as ALBUM_CREATED.
func DecodeEnvelope(destination string, body []byte) (domain.Notification, error) {
	body = bytes.TrimSpace(body)
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.Notification{}, fmt.Errorf("malformed notification: %w", err)
	}

	n := domain.Notification{
		Type:        strings.ToUpper(strings.TrimSpace(env.Type)),
		Message:     env.Message,
		Timestamp:   parseTimestamp(env.Timestamp),
		Payload:     payloadOf(env),
		Destination: destination,
	}
	if n.Type != "" {
		return n, nil
	}

	if strings.HasSuffix(destination, AlbumTopic) {
		var album domain.Album
		if err := json.Unmarshal(body, &album); err == nil && (album.ID != 0 || album.Title != "") {
			n.Type = domain.AlbumEventPrefix + "CREATED"
			n.Message = "New album: " + album.Title
			n.Payload = json.RawMessage(body)
			return n, nil
		}
	}
	return domain.Notification{}, errNoType
}

func payloadOf(env envelope) json.RawMessage {
	if len(env.Payload) > 0 && !isNull(env.Payload) {
		return env.Payload
	}
	if len(env.Data) == 0 || isNull(env.Data) {
		return nil
	}
	var wrapped struct {
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(env.Data, &wrapped); err == nil && len(wrapped.Payload) > 0 {
		return wrapped.Payload
	}
	return env.Data
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Layouts the backend has been seen to send. The last one is a LocalDateTime
// without zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// parseTimestamp accepts an ISO string or epoch milliseconds. Anything else
// yields the zero time.
func parseTimestamp(raw json.RawMessage) time.Time {
	if len(raw) == 0 || isNull(raw) {
		return time.Time{}
	}
	var millis int64
	if err := json.Unmarshal(raw, &millis); err == nil {
		return time.UnixMilli(millis)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
