package redis

/*
Плагин для отправки снимков устройств в Redis: последнее состояние
устройства хранится в ключе <key_prefix><id>, снимок публикуется в канал.

Раздел настроек:

server = "localhost:6379"
password = ""
db = 0
key_prefix = "tracksync:device:"
channel = "tracksync.devices"
ttl = 600
*/

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const defaultKeyPrefix = "tracksync:device:"

type Connector struct {
	client    *redis.Client
	config    map[string]string
	keyPrefix string
	ttl       time.Duration
}

func (c *Connector) Init(cfg map[string]string) error {
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}
	c.config = cfg
	c.keyPrefix = c.config["key_prefix"]
	if c.keyPrefix == "" {
		c.keyPrefix = defaultKeyPrefix
	}

	db := 0
	if v := c.config["db"]; v != "" {
		var err error
		if db, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("некорректный номер базы Redis %q: %v", v, err)
		}
	}
	if v := c.config["ttl"]; v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("некорректный ttl %q: %v", v, err)
		}
		c.ttl = time.Duration(seconds) * time.Second
	}

	c.client = redis.NewClient(&redis.Options{
		Addr:     c.config["server"],
		Password: c.config["password"],
		DB:       db,
	})

	if err := c.client.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("Redis недоступен: %v", err)
	}
	return nil
}

func (c *Connector) Save(msg interface{ ToBytes() ([]byte, error) }) error {
	if msg == nil {
		return fmt.Errorf("некорректная ссылка на пакет")
	}

	innerPkg, err := msg.ToBytes()
	if err != nil {
		return fmt.Errorf("ошибка сериализации пакета: %v", err)
	}

	ctx := context.Background()
	pipe := c.client.TxPipeline()
	if device, ok := msg.(interface{ DeviceID() string }); ok {
		pipe.Set(ctx, c.keyPrefix+device.DeviceID(), innerPkg, c.ttl)
	}
	if channel := c.config["channel"]; channel != "" {
		pipe.Publish(ctx, channel, innerPkg)
	}

	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("не удалось отправить сообщение: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
