package types

import (
	"fmt"

	"github.com/goccy/go-json"
)

const (
	requestLatKey  = "requestLat"
	requestLngKey  = "requestLng"
	displayNameKey = "display_name"
)

// AddressEntry – ответ сервиса обратного геокодирования вместе с точкой запроса.
// В JSON поля ответа хранятся как есть, рядом с requestLat/requestLng.
type AddressEntry struct {
	Request     Position2D
	DisplayName string
	Fields      map[string]json.RawMessage
}

func (e AddressEntry) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(e.Fields)+3)
	for k, v := range e.Fields {
		out[k] = v
	}
	out[displayNameKey] = e.DisplayName
	out[requestLatKey] = e.Request.Latitude
	out[requestLngKey] = e.Request.Longitude
	return json.Marshal(out)
}

func (e *AddressEntry) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}

	for _, key := range []string{requestLatKey, requestLngKey} {
		if _, ok := fields[key]; !ok {
			return fmt.Errorf("отсутствует %s", key)
		}
	}

	var lat, lng Text
	if err := json.Unmarshal(fields[requestLatKey], &lat); err != nil {
		return fmt.Errorf("некорректный %s: %w", requestLatKey, err)
	}
	if err := json.Unmarshal(fields[requestLngKey], &lng); err != nil {
		return fmt.Errorf("некорректный %s: %w", requestLngKey, err)
	}
	latValue, err := lat.Float()
	if err != nil {
		return fmt.Errorf("некорректный %s %q", requestLatKey, lat)
	}
	lngValue, err := lng.Float()
	if err != nil {
		return fmt.Errorf("некорректный %s %q", requestLngKey, lng)
	}

	var name string
	if raw, ok := fields[displayNameKey]; ok {
		if err := json.Unmarshal(raw, &name); err != nil {
			return fmt.Errorf("некорректный %s: %w", displayNameKey, err)
		}
	}

	delete(fields, requestLatKey)
	delete(fields, requestLngKey)
	delete(fields, displayNameKey)

	*e = AddressEntry{
		Request:     Position2D{Latitude: latValue, Longitude: lngValue},
		DisplayName: name,
		Fields:      fields,
	}
	return nil
}
