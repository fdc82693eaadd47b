package rabbitmq

/*
Плагин для отправки снимков устройств в RabbitMQ.

Раздел настроек, которые должны присутствовать в конфиге для подключения хранилища:

host = "localhost"
port = "5672"
user = "guest"
password = "guest"
exchange = "tracksync"
key = "devices"
*/

import (
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

type Connector struct {
	connection *amqp.Connection
	channel    *amqp.Channel
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
	if c.config["exchange"] == "" {
		return fmt.Errorf("не задан exchange RabbitMQ")
	}

	conStr := fmt.Sprintf("amqp://%s:%s@%s:%s/", c.config["user"], c.config["password"], c.config["host"], c.config["port"])
	if c.connection, err = amqp.Dial(conStr); err != nil {
		return fmt.Errorf("ошибка подключения к RabbitMQ: %v", err)
	}

	if c.channel, err = c.connection.Channel(); err != nil {
		return fmt.Errorf("ошибка открытия канала RabbitMQ: %v", err)
	}

	if err = c.channel.ExchangeDeclare(c.config["exchange"], "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("не удалось объявить exchange %s: %v", c.config["exchange"], err)
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

	if err = c.channel.Publish(
		c.config["exchange"],
		c.config["key"],
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now().UTC(),
			Body:        innerPkg,
		},
	); err != nil {
		return fmt.Errorf("не удалось отправить сообщение: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.connection == nil {
		return nil
	}
	return c.connection.Close()
}
