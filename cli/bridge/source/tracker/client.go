package tracker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/daniil11ru/tracksync/cli/bridge/types"
	"github.com/daniil11ru/tracksync/libs/envelope"
)

const maxResponseSize = 16 << 20

type Settings struct {
	LoginURL        string
	LoginData       string
	DevicesURL      string
	DevicesBaseData string
	Timeout         time.Duration
}

type LoginResponse struct {
	UserInfo *struct {
		Key2018 string `json:"key2018"`
	} `json:"userInfo"`
}

type DeviceListResponse struct {
	Devices *[]types.Device `json:"devices"`
}

// Client – HTTP-клиент API вендора трекеров.
type Client struct {
	settings Settings
	http     *http.Client
}

func NewClient(settings Settings) *Client {
	return &Client{
		settings: settings,
		http:     &http.Client{Timeout: settings.Timeout},
	}
}

// Login выполняет вход с настроенными учетными данными и возвращает токен сессии.
func (c *Client) Login(ctx context.Context) (string, error) {
	body, err := c.post(ctx, c.settings.LoginURL, c.settings.LoginData)
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrAuth, err)
	}

	var response LoginResponse
	if err := envelope.Decode(body, &response); err != nil {
		return "", fmt.Errorf("%w: %w: %w", types.ErrAuth, types.ErrDecode, err)
	}

	if response.UserInfo == nil || strings.TrimSpace(response.UserInfo.Key2018) == "" {
		return "", fmt.Errorf("%w: в ответе отсутствует userInfo.key2018", types.ErrAuth)
	}

	return response.UserInfo.Key2018, nil
}

// GetDevices запрашивает список устройств. Ответ без поля devices считается
// признаком недействительного токена.
func (c *Client) GetDevices(ctx context.Context, token string) ([]types.Device, error) {
	body, err := c.post(ctx, c.settings.DevicesURL, c.settings.DevicesBaseData+url.QueryEscape(token))
	if err != nil {
		return nil, err
	}

	var response DeviceListResponse
	if err := envelope.Decode(body, &response); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrDecode, err)
	}

	if response.Devices == nil {
		return nil, fmt.Errorf("%w: %w: в ответе отсутствует список devices", types.ErrDecode, types.ErrAuth)
	}

	return *response.Devices, nil
}

func (c *Client) post(ctx context.Context, target, data string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: некорректный запрос к %s: %v", types.ErrTransport, target, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: ошибка чтения ответа %s: %v", types.ErrTransport, target, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %w: %s вернул %d", types.ErrTransport, types.ErrAuth, target, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: %s вернул %d", types.ErrTransport, target, resp.StatusCode)
	}

	return body, nil
}
