package sql

/*
Плагин для записи снимков устройств в таблицу PostgreSQL или MySQL.

Настройки, которые могут (а не которые – должны) быть в конфиге для подключения хранилища:

host = "localhost"
port = "5432"
user = "tracksync"
password = "pass"
database = "tracksync"
table = "device_snapshots"
sslmode = "disable"
*/

import (
	"fmt"
	"regexp"

	"github.com/daniil11ru/tracksync/cli/bridge/connector"
)

const defaultTable = "device_snapshots"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Connector struct {
	// Driver – "postgres" или "mysql"
	Driver string

	connector connector.Connector
	table     string
}

func (c *Connector) Init(cfg map[string]string) error {
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}

	settings := make(map[string]string, len(cfg)+1)
	for k, v := range cfg {
		settings[k] = v
	}
	if settings["driver"] == "" {
		settings["driver"] = c.Driver
	}

	c.table = settings["table"]
	if c.table == "" {
		c.table = defaultTable
	}
	if !tableName.MatchString(c.table) {
		return fmt.Errorf("некорректное имя таблицы: %q", c.table)
	}

	if err := c.connector.Connect(settings); err != nil {
		return err
	}

	if _, err := c.connector.GetConnection().Exec(c.createTableQuery()); err != nil {
		return fmt.Errorf("не удалось создать таблицу %s: %v", c.table, err)
	}
	return nil
}

func (c *Connector) createTableQuery() string {
	if c.connector.Driver() == "mysql" {
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			device_id VARCHAR(64) NOT NULL,
			payload TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`, c.table)
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id BIGSERIAL PRIMARY KEY,
		device_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at TIMESTAMPTZ DEFAULT now()
	)`, c.table)
}

func (c *Connector) insertQuery() string {
	if c.connector.Driver() == "mysql" {
		return fmt.Sprintf("INSERT INTO %s (device_id, payload) VALUES (?, ?)", c.table)
	}
	return fmt.Sprintf("INSERT INTO %s (device_id, payload) VALUES ($1, $2)", c.table)
}

func (c *Connector) Save(msg interface{ ToBytes() ([]byte, error) }) error {
	if msg == nil {
		return fmt.Errorf("некорректная ссылка на пакет")
	}

	innerPkg, err := msg.ToBytes()
	if err != nil {
		return fmt.Errorf("ошибка сериализации пакета: %v", err)
	}

	deviceID := ""
	if device, ok := msg.(interface{ DeviceID() string }); ok {
		deviceID = device.DeviceID()
	}

	if _, err = c.connector.GetConnection().Exec(c.insertQuery(), deviceID, string(innerPkg)); err != nil {
		return fmt.Errorf("не удалось вставить запись: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	return c.connector.Close()
}
