package envelope

/*
Кодек ответов вендора трекеров.

Сервис вендора отвечает XML-документом из единственного элемента string,
текстовое содержимое которого – JSON-строка:

	<?xml version="1.0" encoding="utf-8"?>
	<string xmlns="http://tempuri.org/">{"devices":[...]}</string>
*/

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

const rootElement = "string"

var ErrDecode = errors.New("некорректный конверт ответа")

type document struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
}

// Unwrap возвращает JSON, вложенный в текстовый узел конверта.
func Unwrap(payload []byte) ([]byte, error) {
	var doc document
	if err := xml.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("%w: ошибка разбора XML: %v", ErrDecode, err)
	}

	if doc.XMLName.Local != rootElement {
		return nil, fmt.Errorf("%w: ожидался элемент <%s>, получен <%s>", ErrDecode, rootElement, doc.XMLName.Local)
	}

	text := strings.TrimSpace(doc.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: отсутствует текстовый узел", ErrDecode)
	}

	inner := []byte(text)
	if !json.Valid(inner) {
		return nil, fmt.Errorf("%w: текстовый узел не является JSON", ErrDecode)
	}

	return inner, nil
}

// Decode разворачивает конверт и десериализует JSON в v.
func Decode(payload []byte, v interface{}) error {
	inner, err := Unwrap(payload)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(inner, v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return nil
}

// DecodeValue разворачивает конверт в нетипизированное JSON-значение.
func DecodeValue(payload []byte) (interface{}, error) {
	var v interface{}
	if err := Decode(payload, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func Wrap(v interface{}) ([]byte, error) {
	inner, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации JSON: %v", err)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(`<string xmlns="http://tempuri.org/">`)
	if err := xml.EscapeText(&buf, inner); err != nil {
		return nil, fmt.Errorf("ошибка экранирования XML: %v", err)
	}
	buf.WriteString("</string>")

	return buf.Bytes(), nil
}
