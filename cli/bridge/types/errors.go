package types

import "errors"

var (
	ErrTransport = errors.New("ошибка транспорта")
	ErrDecode    = errors.New("ошибка декодирования")
	ErrAuth      = errors.New("ошибка авторизации")
	ErrPublish   = errors.New("ошибка публикации")
	ErrConfig    = errors.New("ошибка конфигурации")
)
