package traccar

/*
Плагин для пересылки позиций в Traccar по протоколу OsmAnd
(GET <url>/?id=&lat=&lon=&speed=&bearing=&batt=&timestamp=).

Раздел настроек:

url = "http://localhost:5055"
timeout = 10
*/

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 10

type Connector struct {
	endpoint string
	http     *http.Client
}

func (c *Connector) Init(cfg map[string]string) error {
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}

	endpoint, err := url.Parse(cfg["url"])
	if err != nil || endpoint.Scheme == "" || endpoint.Host == "" {
		return fmt.Errorf("некорректный адрес Traccar: %q", cfg["url"])
	}
	c.endpoint = strings.TrimRight(endpoint.String(), "/") + "/"

	timeout := defaultTimeout
	if v := cfg["timeout"]; v != "" {
		if timeout, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("некорректный timeout %q: %v", v, err)
		}
	}
	c.http = &http.Client{Timeout: time.Duration(timeout) * time.Second}

	return nil
}

func (c *Connector) Save(msg interface{ ToBytes() ([]byte, error) }) error {
	position, ok := msg.(interface{ OsmAndQuery() url.Values })
	if !ok {
		return fmt.Errorf("сообщение не содержит позицию для Traccar")
	}

	resp, err := c.http.Get(c.endpoint + "?" + position.OsmAndQuery().Encode())
	if err != nil {
		return fmt.Errorf("не удалось отправить позицию в Traccar: %v", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("Traccar вернул %d", resp.StatusCode)
	}
	return nil
}

func (c *Connector) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
