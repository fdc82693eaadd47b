package connector

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

type Settings struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
}

// Connector – подключение к PostgreSQL или MySQL по настройкам хранилища.
type Connector struct {
	connection *sql.DB
	settings   Settings
}

var defaultPorts = map[string]string{
	"postgres": "5432",
	"mysql":    "3306",
}

func getOptionValue(optionName string, optionDefaultValue string, settings map[string]string) string {
	optionValue := settings[optionName]
	if optionValue == "" {
		log.Warnf("Ключ '%s' не найден в конфигурации хранилища. Используется значение по умолчанию '%s'.", optionName, optionDefaultValue)
		optionValue = optionDefaultValue
	}

	return optionValue
}

// FillSettings дополняет настройки значениями по умолчанию. Драйвер берется
// из driver, а при его отсутствии из type ("postgresql" или "mysql").
func (c *Connector) FillSettings(settings map[string]string) {
	driver := settings["driver"]
	if driver == "" {
		switch settings["type"] {
		case "mysql":
			driver = "mysql"
		default:
			driver = "postgres"
		}
	}

	c.settings.Driver = driver
	c.settings.Host = getOptionValue("host", "localhost", settings)
	c.settings.Port = getOptionValue("port", defaultPorts[driver], settings)
	c.settings.User = getOptionValue("user", "tracksync", settings)
	c.settings.Password = settings["password"]
	c.settings.Database = getOptionValue("database", "tracksync", settings)
	c.settings.SSLMode = getOptionValue("sslmode", "disable", settings)
}

func (c *Connector) DataSourceName() (string, error) {
	switch c.settings.Driver {
	case "postgres":
		return fmt.Sprintf("dbname=%s host=%s port=%s user=%s password=%s sslmode=%s",
			c.settings.Database, c.settings.Host, c.settings.Port, c.settings.User, c.settings.Password, c.settings.SSLMode), nil
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
			c.settings.User, c.settings.Password, c.settings.Host, c.settings.Port, c.settings.Database), nil
	default:
		return "", fmt.Errorf("неизвестный драйвер базы данных: %s", c.settings.Driver)
	}
}

func (c *Connector) Connect(settings map[string]string) error {
	var err error
	if settings == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}

	c.FillSettings(settings)

	dsn, err := c.DataSourceName()
	if err != nil {
		return err
	}

	if c.connection, err = sql.Open(c.settings.Driver, dsn); err != nil {
		return fmt.Errorf("ошибка подключения к %s: %v", c.settings.Driver, err)
	}

	if err = c.connection.Ping(); err != nil {
		return fmt.Errorf("%s недоступен: %v", c.settings.Driver, err)
	}
	return nil
}

func (c *Connector) Driver() string {
	return c.settings.Driver
}

func (c *Connector) GetConnection() *sql.DB {
	return c.connection
}

func (c *Connector) Close() error {
	if c.connection == nil {
		return nil
	}
	return c.connection.Close()
}
