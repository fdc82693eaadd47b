package nats

/*
Плагин для отправки снимков устройств в NATS.

Раздел настроек, которые должны присутствовать в конфиге для подключения хранилища:

servers = "nats://localhost:4222"
subject = "tracksync.devices"
*/

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

type Connector struct {
	connection *nats.Conn
	config     map[string]string
}

func (c *Connector) Init(cfg map[string]string) error {
	var (
		err error
	)
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}
	c.config = cfg
	if c.config["subject"] == "" {
		return fmt.Errorf("не задан subject NATS")
	}

	if c.connection, err = nats.Connect(c.config["servers"], nats.Name("tracksync")); err != nil {
		return fmt.Errorf("ошибка подключения к NATS: %v", err)
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

	if err = c.connection.Publish(c.config["subject"], innerPkg); err != nil {
		return fmt.Errorf("не удалось отправить сообщение: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	if c.connection == nil {
		return nil
	}
	c.connection.Close()
	return nil
}
