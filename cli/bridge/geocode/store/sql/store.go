package sql

/*
Кэш адресов в таблице PostgreSQL или MySQL.

Раздел настроек:

type = "postgresql" | "mysql"
host = "localhost"
port = "5432"
user = "tracksync"
password = "pass"
database = "tracksync"
sslmode = "disable"
table = "geocode_cache"
*/

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/daniil11ru/tracksync/cli/bridge/connector"
	"github.com/daniil11ru/tracksync/cli/bridge/types"
	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

const defaultTable = "geocode_cache"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Store struct {
	connector connector.Connector
	db        *sql.DB
	table     string
}

func (s *Store) Init(cfg map[string]string) error {
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}

	s.table = cfg["table"]
	if s.table == "" {
		s.table = defaultTable
	}
	if !tableName.MatchString(s.table) {
		return fmt.Errorf("некорректное имя таблицы: %q", s.table)
	}

	if err := s.connector.Connect(cfg); err != nil {
		return err
	}
	s.db = s.connector.GetConnection()

	if _, err := s.db.Exec(s.createTableQuery()); err != nil {
		return fmt.Errorf("не удалось создать таблицу %s: %v", s.table, err)
	}
	return nil
}

func (s *Store) createTableQuery() string {
	if s.connector.Driver() == "mysql" {
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			request_lat DOUBLE NOT NULL,
			request_lng DOUBLE NOT NULL,
			payload TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`, s.table)
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id BIGSERIAL PRIMARY KEY,
		request_lat DOUBLE PRECISION NOT NULL,
		request_lng DOUBLE PRECISION NOT NULL,
		payload TEXT NOT NULL,
		created_at TIMESTAMPTZ DEFAULT now()
	)`, s.table)
}

func (s *Store) insertQuery() string {
	if s.connector.Driver() == "mysql" {
		return fmt.Sprintf("INSERT INTO %s (request_lat, request_lng, payload) VALUES (?, ?, ?)", s.table)
	}
	return fmt.Sprintf("INSERT INTO %s (request_lat, request_lng, payload) VALUES ($1, $2, $3)", s.table)
}

func (s *Store) trimQuery(keep int) string {
	// MySQL не допускает LIMIT в подзапросе IN без производной таблицы.
	return fmt.Sprintf("DELETE FROM %[1]s WHERE id NOT IN (SELECT id FROM (SELECT id FROM %[1]s ORDER BY id DESC LIMIT %[2]d) AS newest)", s.table, keep)
}

func (s *Store) Load(ctx context.Context) ([]types.AddressEntry, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT payload FROM %s ORDER BY id", s.table))
	if err != nil {
		return nil, fmt.Errorf("%w: не удалось прочитать %s: %v", types.ErrTransport, s.table, err)
	}
	defer rows.Close()

	var entries []types.AddressEntry
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrTransport, err)
		}

		var entry types.AddressEntry
		if err := json.Unmarshal([]byte(payload), &entry); err != nil {
			log.Warnf("Пропущена некорректная запись в %s: %v", s.table, err)
			continue
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrTransport, err)
	}
	return entries, nil
}

func (s *Store) Append(ctx context.Context, entry types.AddressEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("ошибка сериализации адреса: %v", err)
	}

	if _, err := s.db.ExecContext(ctx, s.insertQuery(), entry.Request.Latitude, entry.Request.Longitude, string(payload)); err != nil {
		return fmt.Errorf("%w: не удалось записать адрес в %s: %v", types.ErrTransport, s.table, err)
	}
	return nil
}

func (s *Store) Trim(ctx context.Context, keep int) error {
	if _, err := s.db.ExecContext(ctx, s.trimQuery(keep)); err != nil {
		return fmt.Errorf("%w: не удалось сократить %s: %v", types.ErrTransport, s.table, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.connector.Close()
}
