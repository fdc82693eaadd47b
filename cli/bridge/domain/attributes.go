package domain

import (
	"strconv"
	"strings"

	"github.com/daniil11ru/tracksync/cli/bridge/types"
	"github.com/gosimple/unidecode"
)

const (
	sensorDomain  = "sensor."
	trackerDomain = "device_tracker."

	SuffixAddress = "_address"
)

// Attribute – одно значение устройства, публикуемое отдельным сенсором.
type Attribute struct {
	Suffix string
	Value  string
}

// Key – ключ атрибута в агрегированном состоянии трекера.
func (a Attribute) Key() string {
	return strings.TrimPrefix(a.Suffix, "_")
}

// DeviceAttributes строит атрибуты в порядке публикации.
func DeviceAttributes(r types.DeviceRecord) []Attribute {
	return []Attribute{
		{"_id", r.ID},
		{"_latitude", formatCoordinate(r.Position.Latitude)},
		{"_longitude", formatCoordinate(r.Position.Longitude)},
		{"_speed", r.Speed},
		{"_bearing", r.Bearing},
		{"_battery_voltage", r.BatteryVoltage},
		{"_battery", BatteryPercentage(r.BatteryVoltage)},
		{"_name", r.Name},
		{"_timestamp", r.PositionTime},
		{"_stopped", r.Stopped},
		{"_signal", r.Signal},
		{"_satellites", r.Satellites},
		{"_satellites_glonass", r.SatellitesGL},
		{"_satellites_beidou", r.SatellitesBD},
	}
}

// TrackerAttributes сворачивает атрибуты в плоский словарь состояния трекера.
// Координаты передаются числами, иначе Home Assistant не покажет трекер на карте.
func TrackerAttributes(r types.DeviceRecord, attrs []Attribute) map[string]interface{} {
	result := make(map[string]interface{}, len(attrs))
	for _, a := range attrs {
		result[a.Key()] = a.Value
	}
	result["latitude"] = r.Position.Latitude
	result["longitude"] = r.Position.Longitude
	return result
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Slugify приводит имя к object id Home Assistant: транслитерация в ASCII,
// нижний регистр, любые последовательности символов вне [a-z0-9] заменяются на "_".
func Slugify(name string) string {
	var b strings.Builder
	pendingSeparator := false

	for _, r := range strings.ToLower(unidecode.Unidecode(name)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSeparator && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSeparator = false
			b.WriteRune(r)
			continue
		}
		pendingSeparator = true
	}

	return b.String()
}

type EntityNamer struct {
	Prefix string
}

func (n EntityNamer) ObjectID(r types.DeviceRecord) string {
	slug := Slugify(r.DisplayName())
	if slug == "" {
		slug = Slugify(r.ID)
	}
	if n.Prefix == "" {
		return slug
	}
	return Slugify(n.Prefix) + "_" + slug
}

func (n EntityNamer) Sensor(r types.DeviceRecord, suffix string) string {
	return sensorDomain + n.ObjectID(r) + suffix
}

func (n EntityNamer) Tracker(r types.DeviceRecord) string {
	return trackerDomain + n.ObjectID(r)
}
