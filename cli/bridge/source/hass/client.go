package hass

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/daniil11ru/tracksync/cli/bridge/types"
	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

const (
	zonePrefix      = "zone."
	maxResponseSize = 16 << 20
	maxErrorSize    = 4 << 10
)

type Settings struct {
	URL     string
	Token   string
	Timeout time.Duration
}

type Entity struct {
	EntityID   string          `json:"entity_id"`
	State      string          `json:"state"`
	Attributes json.RawMessage `json:"attributes"`
}

type zoneAttributes struct {
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Radius       *float64 `json:"radius"`
	FriendlyName string   `json:"friendly_name"`
}

type stateRequest struct {
	State      string                 `json:"state"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// Client – клиент REST API Home Assistant.
type Client struct {
	settings Settings
	http     *http.Client
}

func NewClient(settings Settings) *Client {
	settings.URL = strings.TrimRight(settings.URL, "/")
	return &Client{
		settings: settings,
		http:     &http.Client{Timeout: settings.Timeout},
	}
}

func (c *Client) GetStates(ctx context.Context) ([]Entity, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/states", nil)
	if err != nil {
		return nil, err
	}

	var entities []Entity
	if err := json.Unmarshal(body, &entities); err != nil {
		return nil, fmt.Errorf("%w: некорректный список сущностей: %v", types.ErrDecode, err)
	}
	return entities, nil
}

// GetZones возвращает зоны в порядке, в котором их отдал Home Assistant.
// Зоны без координат или радиуса пропускаются.
func (c *Client) GetZones(ctx context.Context) ([]types.Zone, error) {
	entities, err := c.GetStates(ctx)
	if err != nil {
		return nil, err
	}

	var zones []types.Zone
	for _, entity := range entities {
		if !strings.HasPrefix(entity.EntityID, zonePrefix) {
			continue
		}

		zone, err := parseZone(entity)
		if err != nil {
			log.WithField("entity", entity.EntityID).Warnf("Зона пропущена: %v", err)
			continue
		}
		zones = append(zones, zone)
	}

	return zones, nil
}

func parseZone(entity Entity) (types.Zone, error) {
	var attrs zoneAttributes
	if len(entity.Attributes) == 0 {
		return types.Zone{}, fmt.Errorf("%w: отсутствуют атрибуты", types.ErrDecode)
	}
	if err := json.Unmarshal(entity.Attributes, &attrs); err != nil {
		return types.Zone{}, fmt.Errorf("%w: %v", types.ErrDecode, err)
	}
	if attrs.Latitude == nil || attrs.Longitude == nil || attrs.Radius == nil {
		return types.Zone{}, fmt.Errorf("%w: отсутствуют latitude, longitude или radius", types.ErrDecode)
	}

	name := attrs.FriendlyName
	if name == "" {
		name = strings.TrimPrefix(entity.EntityID, zonePrefix)
	}

	return types.Zone{
		Name:         name,
		Center:       types.Position2D{Latitude: *attrs.Latitude, Longitude: *attrs.Longitude},
		RadiusMeters: *attrs.Radius,
	}, nil
}

// SetState создает или обновляет состояние сущности.
func (c *Client) SetState(ctx context.Context, entityID, state string, attributes map[string]interface{}) error {
	payload, err := json.Marshal(stateRequest{State: state, Attributes: attributes})
	if err != nil {
		return fmt.Errorf("%w: ошибка сериализации состояния %s: %v", types.ErrPublish, entityID, err)
	}

	if _, err := c.do(ctx, http.MethodPost, "/api/states/"+entityID, payload); err != nil {
		return fmt.Errorf("%w: %s: %w", types.ErrPublish, entityID, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.settings.URL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: некорректный запрос %s: %v", types.ErrTransport, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.settings.Token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorSize))
		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, fmt.Errorf("%w: %s %s вернул %d", types.ErrAuth, method, path, resp.StatusCode)
		case resp.StatusCode >= 500:
			return nil, fmt.Errorf("%w: %s %s вернул %d: %s", types.ErrTransport, method, path, resp.StatusCode, bytes.TrimSpace(msg))
		default:
			return nil, fmt.Errorf("%s %s вернул %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: ошибка чтения ответа %s: %v", types.ErrTransport, path, err)
	}
	return body, nil
}
