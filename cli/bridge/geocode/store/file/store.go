package file

/*
Кэш адресов в JSON-файле.

Файл – массив ответов геокодера с добавленными requestLat/requestLng.

Раздел настроек:

type = "file"
path = "geoCache.json"
*/

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/daniil11ru/tracksync/cli/bridge/types"
	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

type Store struct {
	path string

	mu      sync.Mutex
	entries []types.AddressEntry
}

func (s *Store) Init(cfg map[string]string) error {
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}
	s.path = cfg["path"]
	if s.path == "" {
		return fmt.Errorf("не задан путь к файлу кэша адресов")
	}
	return nil
}

// Load читает файл. Отсутствующий файл означает пустой кэш. Некорректные
// записи пропускаются, а нечитаемый файл откладывается в <path>.corrupt,
// и кэш начинается с нуля.
func (s *Store) Load(ctx context.Context) ([]types.AddressEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.entries = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать %s: %w", s.path, err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warnf("Некорректный файл кэша адресов %s, кэш начинается с нуля: %v", s.path, err)
		if err := os.Rename(s.path, s.path+".corrupt"); err != nil {
			log.Warnf("Не удалось отложить %s: %v", s.path, err)
		}
		s.entries = nil
		return nil, nil
	}

	entries := make([]types.AddressEntry, 0, len(raw))
	for i, item := range raw {
		var entry types.AddressEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			log.Warnf("Пропущена некорректная запись %d в %s: %v", i, s.path, err)
			continue
		}
		entries = append(entries, entry)
	}

	s.entries = entries
	return append([]types.AddressEntry(nil), entries...), nil
}

func (s *Store) Append(ctx context.Context, entry types.AddressEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)
	return s.write()
}

func (s *Store) Trim(ctx context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) <= keep {
		return nil
	}
	s.entries = append([]types.AddressEntry(nil), s.entries[len(s.entries)-keep:]...)
	return s.write()
}

func (s *Store) Close() error {
	return nil
}

// write заменяет файл целиком через временный файл в том же каталоге.
func (s *Store) write() error {
	entries := s.entries
	if entries == nil {
		entries = []types.AddressEntry{}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации кэша адресов: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("не удалось создать временный файл: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("не удалось записать кэш адресов: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("не удалось записать кэш адресов: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("не удалось заменить %s: %w", s.path, err)
	}
	return nil
}
