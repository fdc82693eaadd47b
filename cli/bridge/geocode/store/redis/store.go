package redis

/*
Кэш адресов в списке Redis.

Раздел настроек:

type = "redis"
server = "localhost:6379"
password = ""
db = 0
key = "tracksync:geocode"
*/

import (
	"context"
	"fmt"
	"strconv"

	"github.com/daniil11ru/tracksync/cli/bridge/types"
	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

const defaultKey = "tracksync:geocode"

type Store struct {
	client *redis.Client
	key    string
}

func (s *Store) Init(cfg map[string]string) error {
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}

	db := 0
	if v := cfg["db"]; v != "" {
		var err error
		if db, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("некорректный номер базы Redis %q: %v", v, err)
		}
	}

	s.key = cfg["key"]
	if s.key == "" {
		s.key = defaultKey
	}

	s.client = redis.NewClient(&redis.Options{
		Addr:     cfg["server"],
		Password: cfg["password"],
		DB:       db,
	})

	if err := s.client.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("Redis недоступен: %v", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) ([]types.AddressEntry, error) {
	values, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: не удалось прочитать %s: %v", types.ErrTransport, s.key, err)
	}

	entries := make([]types.AddressEntry, 0, len(values))
	for i, v := range values {
		var entry types.AddressEntry
		if err := json.Unmarshal([]byte(v), &entry); err != nil {
			log.Warnf("Пропущена некорректная запись %d в %s: %v", i, s.key, err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Store) Append(ctx context.Context, entry types.AddressEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("ошибка сериализации адреса: %v", err)
	}
	if err := s.client.RPush(ctx, s.key, data).Err(); err != nil {
		return fmt.Errorf("%w: не удалось записать адрес в %s: %v", types.ErrTransport, s.key, err)
	}
	return nil
}

func (s *Store) Trim(ctx context.Context, keep int) error {
	if err := s.client.LTrim(ctx, s.key, int64(-keep), -1).Err(); err != nil {
		return fmt.Errorf("%w: не удалось сократить %s: %v", types.ErrTransport, s.key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
