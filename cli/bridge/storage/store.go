package storage

import (
	"errors"
	"fmt"

	"github.com/daniil11ru/tracksync/cli/bridge/storage/store/nats"
	"github.com/daniil11ru/tracksync/cli/bridge/storage/store/rabbitmq"
	"github.com/daniil11ru/tracksync/cli/bridge/storage/store/redis"
	"github.com/daniil11ru/tracksync/cli/bridge/storage/store/sql"
	"github.com/daniil11ru/tracksync/cli/bridge/storage/store/tarantool_queue"
	"github.com/daniil11ru/tracksync/cli/bridge/storage/store/traccar"
	log "github.com/sirupsen/logrus"
)

var ErrUnknownStorage = errors.New("storage isn't support yet")

type Store interface {
	Connector
	Saver
}

// Saver интерфейс для подключения внешних хранилищ
type Saver interface {
	// Save сохранение в хранилище
	Save(interface{ ToBytes() ([]byte, error) }) error
}

// Connector интерфейс для подключения внешних хранилищ
type Connector interface {
	// Init установка соединения с хранилищем
	Init(map[string]string) error

	// Close закрытие соединения с хранилищем
	Close() error
}

// Repository набор получателей снимков устройств
type Repository struct {
	storages []Saver
}

// AddStore добавляет хранилище для сохранения данных
func (r *Repository) AddStore(s Saver) {
	r.storages = append(r.storages, s)
}

func (r *Repository) Len() int {
	return len(r.storages)
}

// Save передает данные во все установленные хранилища. Ошибка одного
// хранилища не мешает отправке в остальные.
func (r *Repository) Save(m interface{ ToBytes() ([]byte, error) }) error {
	var errs []error
	for _, store := range r.storages {
		if err := store.Save(m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LoadStorages загружает хранилища из структуры конфига
func (r *Repository) LoadStorages(storages map[string]map[string]string) error {
	var db Store
	for store, params := range storages {
		switch store {
		case "rabbitmq":
			db = &rabbitmq.Connector{}
		case "nats":
			db = &nats.Connector{}
		case "tarantool_queue":
			db = &tarantool_queue.Connector{}
		case "redis":
			db = &redis.Connector{}
		case "postgresql", "mysql":
			db = &sql.Connector{Driver: driverName(store)}
		case "traccar":
			db = &traccar.Connector{}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownStorage, store)
		}

		if err := db.Init(params); err != nil {
			return fmt.Errorf("не удалось подключить %s: %w", store, err)
		}

		log.Infof("Подключено хранилище %s", store)
		r.AddStore(db)
	}
	return nil
}

// Close закрывает соединения всех хранилищ
func (r *Repository) Close() {
	for _, s := range r.storages {
		if c, ok := s.(Connector); ok {
			if err := c.Close(); err != nil {
				log.WithField("err", err).Warn("Ошибка закрытия хранилища")
			}
		}
	}
}

func driverName(store string) string {
	if store == "mysql" {
		return "mysql"
	}
	return "postgres"
}

// NewRepository создает пустой репозиторий
func NewRepository() *Repository {
	return &Repository{}
}
