package geocode

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/daniil11ru/tracksync/cli/bridge/types"
	"github.com/goccy/go-json"
)

const maxResponseSize = 1 << 20

// LocationIQ – провайдер обратного геокодирования locationiq.com.
type LocationIQ struct {
	URL    string
	APIKey string

	http *http.Client
}

func NewLocationIQ(endpoint, apiKey string, timeout time.Duration) *LocationIQ {
	return &LocationIQ{
		URL:    endpoint,
		APIKey: apiKey,
		http:   &http.Client{Timeout: timeout},
	}
}

func (l *LocationIQ) Reverse(ctx context.Context, p types.Position2D) (types.AddressEntry, error) {
	query := url.Values{}
	query.Set("key", l.APIKey)
	query.Set("lat", strconv.FormatFloat(p.Latitude, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(p.Longitude, 'f', -1, 64))
	query.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL+"?"+query.Encode(), nil)
	if err != nil {
		return types.AddressEntry{}, fmt.Errorf("%w: некорректный адрес геокодера: %v", types.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.http.Do(req)
	if err != nil {
		return types.AddressEntry{}, fmt.Errorf("%w: %v", types.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return types.AddressEntry{}, fmt.Errorf("%w: ошибка чтения ответа геокодера: %v", types.ErrTransport, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return types.AddressEntry{}, fmt.Errorf("%w: %w: геокодер отклонил ключ (%d)", types.ErrTransport, types.ErrAuth, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return types.AddressEntry{}, fmt.Errorf("%w: геокодер вернул %d: %s", types.ErrTransport, resp.StatusCode, body)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return types.AddressEntry{}, fmt.Errorf("%w: некорректный ответ геокодера: %v", types.ErrDecode, err)
	}

	var name string
	if raw, ok := fields["display_name"]; ok {
		_ = json.Unmarshal(raw, &name)
	}
	if name == "" {
		return types.AddressEntry{}, fmt.Errorf("%w: в ответе геокодера нет display_name", types.ErrDecode)
	}
	delete(fields, "display_name")

	return types.AddressEntry{Request: p, DisplayName: name, Fields: fields}, nil
}
