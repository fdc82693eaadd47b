package storage

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/daniil11ru/tracksync/cli/bridge/metrics"
	log "github.com/sirupsen/logrus"
)

var ErrQueueFull = errors.New("очередь отправки переполнена")

// AsyncRepository отправляет данные в хранилища из пула воркеров,
// чтобы задержки брокеров не замедляли цикл синхронизации.
type AsyncRepository struct {
	repo *Repository
	ch   chan interface{ ToBytes() ([]byte, error) }
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewAsyncRepository(repo *Repository, buffer, workers int) *AsyncRepository {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	ar := &AsyncRepository{
		repo: repo,
		ch:   make(chan interface{ ToBytes() ([]byte, error) }, buffer),
	}
	for i := 0; i < workers; i++ {
		ar.wg.Add(1)
		go ar.worker()
	}
	return ar
}

func (a *AsyncRepository) worker() {
	defer a.wg.Done()
	for msg := range a.ch {
		if err := a.repo.Save(msg); err != nil {
			metrics.FeedErrors.Inc()
			log.WithField("err", err).Error("Ошибка отправки снимка устройства")
		}
	}
}

// Save ставит данные в очередь. При заполненной очереди данные отбрасываются:
// следующий цикл все равно пришлет более свежий снимок.
func (a *AsyncRepository) Save(m interface{ ToBytes() ([]byte, error) }) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return fmt.Errorf("асинхронный репозиторий был закрыт")
	}

	select {
	case a.ch <- m:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close дожидается отправки уже поставленных в очередь данных.
func (a *AsyncRepository) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.ch)
	a.mu.Unlock()

	a.wg.Wait()
}
