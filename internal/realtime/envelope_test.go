package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope(t *testing.T) {
	tests := []struct {
		name        string
		destination string
		body        string
		wantType    string
		wantMessage string
		wantPayload string
		wantErr     bool
	}{
		{
			name:        "typed envelope with wrapped payload",
			destination: "/topic/artistas",
			body:        `{"type":"ARTISTA_CREATED","message":"Artist created","data":{"payload":{"id":7}}}`,
			wantType:    "ARTISTA_CREATED",
			wantMessage: "Artist created",
			wantPayload: `{"id":7}`,
		},
		{
			name:        "bare data payload",
			destination: "/topic/albuns",
			body:        `{"type":"album_deleted","data":{"id":3}}`,
			wantType:    "ALBUM_DELETED",
			wantPayload: `{"id":3}`,
		},
		{
			name:        "raw album dto on album topic",
			destination: "/topic/albuns",
			body:        `{"id":12,"titulo":"Dois","artistaId":1}`,
			wantType:    "ALBUM_CREATED",
			wantMessage: "New album: Dois",
			wantPayload: `{"id":12,"titulo":"Dois","artistaId":1}`,
		},
		{
			name:        "typeless object elsewhere",
			destination: "/topic/artistas",
			body:        `{"id":12}`,
			wantErr:     true,
		},
		{
			name:        "not json",
			destination: "/topic/albuns",
			body:        `hello`,
			wantErr:     true,
		},
		{
			name:        "empty album object",
			destination: "/topic/albuns",
			body:        `{}`,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := DecodeEnvelope(tt.destination, []byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, n.Type)
			assert.Equal(t, tt.wantMessage, n.Message)
			assert.Equal(t, tt.destination, n.Destination)
			if tt.wantPayload == "" {
				assert.Empty(t, n.Payload)
			} else {
				assert.JSONEq(t, tt.wantPayload, string(n.Payload))
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{`"2026-03-01T10:20:30Z"`, time.Date(2026, 3, 1, 10, 20, 30, 0, time.UTC)},
		{`"2026-03-01T10:20:30.5"`, time.Date(2026, 3, 1, 10, 20, 30, 500000000, time.UTC)},
		{`1767225600000`, time.UnixMilli(1767225600000)},
		{`"yesterday"`, time.Time{}},
		{`null`, time.Time{}},
		{``, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.True(t, tt.want.Equal(parseTimestamp([]byte(tt.raw))), "got %v", parseTimestamp([]byte(tt.raw)))
		})
	}
}
