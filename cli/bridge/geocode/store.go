package geocode

import (
	"context"
	"errors"

	"github.com/daniil11ru/tracksync/cli/bridge/geocode/store/file"
	"github.com/daniil11ru/tracksync/cli/bridge/geocode/store/redis"
	"github.com/daniil11ru/tracksync/cli/bridge/geocode/store/sql"
	"github.com/daniil11ru/tracksync/cli/bridge/types"
)

var ErrUnknownStore = errors.New("хранилище кэша адресов не поддерживается")

// Store – долговременное хранилище записей кэша адресов.
type Store interface {
	// Init установка соединения с хранилищем
	Init(map[string]string) error

	// Load записи в порядке добавления
	Load(ctx context.Context) ([]types.AddressEntry, error)

	Append(ctx context.Context, entry types.AddressEntry) error

	// Trim оставляет keep самых новых записей
	Trim(ctx context.Context, keep int) error

	Close() error
}

// LoadStore создает хранилище по полю type конфигурации.
func LoadStore(cfg map[string]string) (Store, error) {
	var s Store
	switch cfg["type"] {
	case "file":
		s = &file.Store{}
	case "redis":
		s = &redis.Store{}
	case "postgresql", "mysql":
		s = &sql.Store{}
	default:
		return nil, ErrUnknownStore
	}

	if err := s.Init(cfg); err != nil {
		return nil, err
	}
	return s, nil
}
