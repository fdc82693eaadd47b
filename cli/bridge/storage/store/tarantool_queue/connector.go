package tarantool_queue

/*
Трансляция снимков устройств в очередь Tarantool (модуль queue).

Все параметры необязательны, в скобках значения по умолчанию:

host = "localhost"
port = "3301"
user = ""
password = ""
queue = "device_snapshots"
encoding = "msgpack" | "json" (msgpack)
timeout = 1            таймаут запроса, с
reconnect = 1          пауза между переподключениями, с
max_recons = 5
ttl = 0                время жизни снимка в очереди, с; 0 – без ограничения
*/

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/tarantool/go-tarantool"
	"github.com/tarantool/go-tarantool/queue"
)

type settings struct {
	address   string
	user      string
	password  string
	queue     string
	msgpack   bool
	timeout   time.Duration
	reconnect time.Duration
	maxRecons uint
	ttl       time.Duration
}

func parseSettings(cfg map[string]string) (settings, error) {
	value := func(key, def string) string {
		if v := cfg[key]; v != "" {
			return v
		}
		return def
	}
	seconds := func(key, def string) (time.Duration, error) {
		n, err := strconv.Atoi(value(key, def))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("некорректное значение %s: %q", key, cfg[key])
		}
		return time.Duration(n) * time.Second, nil
	}

	s := settings{
		address:  net.JoinHostPort(value("host", "localhost"), value("port", "3301")),
		user:     cfg["user"],
		password: cfg["password"],
		queue:    value("queue", "device_snapshots"),
	}

	switch value("encoding", "msgpack") {
	case "msgpack":
		s.msgpack = true
	case "json":
	default:
		return s, fmt.Errorf("неизвестная кодировка сообщений: %s", cfg["encoding"])
	}

	var err error
	if s.timeout, err = seconds("timeout", "1"); err != nil {
		return s, err
	}
	if s.reconnect, err = seconds("reconnect", "1"); err != nil {
		return s, err
	}
	if s.ttl, err = seconds("ttl", "0"); err != nil {
		return s, err
	}

	recons, err := strconv.Atoi(value("max_recons", "5"))
	if err != nil || recons < 0 {
		return s, fmt.Errorf("некорректное значение max_recons: %q", cfg["max_recons"])
	}
	s.maxRecons = uint(recons)

	return s, nil
}

type Connector struct {
	connection *tarantool.Connection
	queue      queue.Queue
	settings   settings
}

func (c *Connector) Init(cfg map[string]string) error {
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}

	s, err := parseSettings(cfg)
	if err != nil {
		return err
	}
	c.settings = s

	c.connection, err = tarantool.Connect(s.address, tarantool.Opts{
		Timeout:       s.timeout,
		Reconnect:     s.reconnect,
		MaxReconnects: s.maxRecons,
		User:          s.user,
		Pass:          s.password,
	})
	if err != nil {
		return fmt.Errorf("не удалось подключиться к Tarantool %s: %v", s.address, err)
	}
	c.queue = queue.New(c.connection, s.queue)

	return nil
}

// encode отдает msgpack, если он включен и снимок его поддерживает.
func (c *Connector) encode(msg interface{ ToBytes() ([]byte, error) }) ([]byte, error) {
	if packer, ok := msg.(interface{ ToMsgpack() ([]byte, error) }); ok && c.settings.msgpack {
		return packer.ToMsgpack()
	}
	return msg.ToBytes()
}

func (c *Connector) Save(msg interface{ ToBytes() ([]byte, error) }) error {
	if msg == nil {
		return fmt.Errorf("некорректная ссылка на снимок")
	}

	payload, err := c.encode(msg)
	if err != nil {
		return fmt.Errorf("ошибка сериализации снимка: %v", err)
	}

	if c.settings.ttl > 0 {
		_, err = c.queue.PutWithOpts(payload, queue.Opts{Ttl: c.settings.ttl})
	} else {
		_, err = c.queue.Put(payload)
	}
	if err != nil {
		return fmt.Errorf("не удалось поставить снимок в очередь %s: %v", c.settings.queue, err)
	}
	return nil
}

func (c *Connector) Close() error {
	if c.connection == nil {
		return nil
	}
	return c.connection.Close()
}
