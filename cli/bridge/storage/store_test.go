package storage

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSaver implements the Saver interface for testing.
type mockSaver struct {
	mu        sync.Mutex
	saveCount int
	err       error
}

func (ms *mockSaver) Save(data interface{ ToBytes() ([]byte, error) }) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.saveCount++
	return ms.err
}

func (ms *mockSaver) count() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.saveCount
}

// testData is a simple struct for testing the Save method.
type testData struct{}

func (td testData) ToBytes() ([]byte, error) {
	return []byte("test"), nil
}

func TestRepositorySaveFansOut(t *testing.T) {
	failing := &mockSaver{err: errors.New("broker down")}
	healthy := &mockSaver{}

	repo := NewRepository()
	repo.AddStore(failing)
	repo.AddStore(healthy)

	err := repo.Save(testData{})
	assert.Error(t, err)
	assert.Equal(t, 1, failing.count())
	assert.Equal(t, 1, healthy.count(), "a failing store must not block the others")
}

func TestRepositorySaveWithoutStores(t *testing.T) {
	assert.NoError(t, NewRepository().Save(testData{}))
}

func TestLoadStorages(t *testing.T) {
	tests := []struct {
		name     string
		storages map[string]map[string]string
		expected error
	}{
		{name: "Empty config", storages: map[string]map[string]string{}},
		{name: "Unknown storage", storages: map[string]map[string]string{"kafka": {}}, expected: ErrUnknownStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewRepository()
			err := repo.LoadStorages(tt.storages)
			if tt.expected == nil {
				assert.NoError(t, err)
				assert.Equal(t, 0, repo.Len())
				return
			}
			assert.True(t, errors.Is(err, tt.expected))
		})
	}
}

func TestLoadStoragesTraccar(t *testing.T) {
	log.SetOutput(io.Discard)

	repo := NewRepository()
	require.NoError(t, repo.LoadStorages(map[string]map[string]string{
		"traccar": {"url": "http://localhost:5055"},
	}))
	assert.Equal(t, 1, repo.Len())
	repo.Close()
}

func TestAsyncRepositoryDeliversQueuedData(t *testing.T) {
	log.SetOutput(io.Discard)

	saver := &mockSaver{}
	repo := NewRepository()
	repo.AddStore(saver)

	async := NewAsyncRepository(repo, 10, 2)
	for i := 0; i < 5; i++ {
		require.NoError(t, async.Save(testData{}))
	}
	async.Close()

	assert.Equal(t, 5, saver.count())
	assert.Error(t, async.Save(testData{}))
}

// blockingSaver holds workers until released.
type blockingSaver struct {
	release chan struct{}
}

func (b *blockingSaver) Save(data interface{ ToBytes() ([]byte, error) }) error {
	<-b.release
	return nil
}

func TestAsyncRepositoryDropsWhenFull(t *testing.T) {
	log.SetOutput(io.Discard)

	saver := &blockingSaver{release: make(chan struct{})}
	repo := NewRepository()
	repo.AddStore(saver)

	async := NewAsyncRepository(repo, 1, 1)

	// The worker picks up the first message and blocks; the second fills the buffer.
	require.NoError(t, async.Save(testData{}))
	require.Eventually(t, func() bool { return len(async.ch) == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, async.Save(testData{}))

	assert.True(t, errors.Is(async.Save(testData{}), ErrQueueFull))

	close(saver.release)
	async.Close()
}
