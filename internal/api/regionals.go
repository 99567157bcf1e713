package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/seplag/discoteca/internal/domain"
)

func (c *Client) ListRegionals(ctx context.Context) ([]domain.Regional, error) {
	var list []domain.Regional
	if err := c.getJSON(ctx, "/regionais", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SyncRegionals triggers the external sync. Some backend versions answer with
// the refreshed list, others with a summary object; ok reports the former.
func (c *Client) SyncRegionals(ctx context.Context) (list []domain.Regional, ok bool, err error) {
	req, err := newJSONRequest(http.MethodPost, "/regionais/sincronizar", nil, nil)
	if err != nil {
		return nil, false, err
	}
	body, err := c.do(ctx, req)
	if err != nil {
		return nil, false, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false, nil
	}
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, false, fmt.Errorf("failed to parse response: %w", err)
	}
	return list, true, nil
}
