package tracker

import (
	"context"
	"sync"

	"github.com/daniil11ru/tracksync/cli/bridge/metrics"
	log "github.com/sirupsen/logrus"
)

type Authenticator interface {
	Login(ctx context.Context) (string, error)
}

// TokenManager лениво получает токен сессии и хранит его до явного сброса.
type TokenManager struct {
	Authenticator Authenticator

	mu    sync.Mutex
	token string
}

func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" {
		return m.token, nil
	}

	token, err := m.Authenticator.Login(ctx)
	if err != nil {
		metrics.TokenLogins.WithLabelValues("error").Inc()
		return "", err
	}

	metrics.TokenLogins.WithLabelValues("ok").Inc()
	log.Info("Получен токен вендора")
	m.token = token

	return token, nil
}

func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" {
		log.Warn("Токен вендора сброшен, при следующем цикле будет выполнен повторный вход")
	}
	m.token = ""
}

func (m *TokenManager) Cached() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != ""
}
