package types

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	msgpack "gopkg.in/vmihailenco/msgpack.v2"
)

// Text – скалярное поле вендора: строка, число или булево значение,
// сохраненное в текстовом виде.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*t = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	case b[0] == '{' || b[0] == '[':
		return fmt.Errorf("ожидалось скалярное значение, получено %s", string(b))
	default:
		*t = Text(b)
	}
	return nil
}

func (t Text) String() string {
	return string(t)
}

func (t Text) Float() (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
}

// Device – запись устройства в ответе вендора.
type Device struct {
	ID           Text `json:"id"`
	Latitude     Text `json:"lat"`
	Longitude    Text `json:"lng"`
	Speed        Text `json:"speed"`
	Course       Text `json:"course"`
	Battery      Text `json:"dy"`
	Name         Text `json:"name"`
	PositionTime Text `json:"positionTime"`
	IsStop       Text `json:"isStop"`
	Signal       Text `json:"signal"`
	Satellite    Text `json:"satellite"`
	SatelliteGL  Text `json:"satellitegl"`
	SatelliteBD  Text `json:"satellitebd"`
}

type DeviceRecord struct {
	ID             string
	Name           string
	Position       Position2D
	Speed          string
	Bearing        string
	BatteryVoltage string
	PositionTime   string
	Stopped        string
	Signal         string
	Satellites     string
	SatellitesGL   string
	SatellitesBD   string
}

// NewDeviceRecord проверяет запись вендора и строит неизменяемую запись устройства.
func NewDeviceRecord(d Device) (DeviceRecord, error) {
	if strings.TrimSpace(d.ID.String()) == "" {
		return DeviceRecord{}, fmt.Errorf("%w: у устройства отсутствует id", ErrDecode)
	}

	lat, err := d.Latitude.Float()
	if err != nil || lat < -90 || lat > 90 {
		return DeviceRecord{}, fmt.Errorf("%w: некорректная широта %q устройства %s", ErrDecode, d.Latitude, d.ID)
	}
	lng, err := d.Longitude.Float()
	if err != nil || lng < -180 || lng > 180 {
		return DeviceRecord{}, fmt.Errorf("%w: некорректная долгота %q устройства %s", ErrDecode, d.Longitude, d.ID)
	}

	return DeviceRecord{
		ID:             d.ID.String(),
		Name:           d.Name.String(),
		Position:       Position2D{Latitude: lat, Longitude: lng},
		Speed:          d.Speed.String(),
		Bearing:        d.Course.String(),
		BatteryVoltage: d.Battery.String(),
		PositionTime:   d.PositionTime.String(),
		Stopped:        d.IsStop.String(),
		Signal:         d.Signal.String(),
		Satellites:     d.Satellite.String(),
		SatellitesGL:   d.SatelliteGL.String(),
		SatellitesBD:   d.SatelliteBD.String(),
	}, nil
}

// DisplayName возвращает имя устройства, а при его отсутствии – id.
func (r DeviceRecord) DisplayName() string {
	if strings.TrimSpace(r.Name) != "" {
		return r.Name
	}
	return r.ID
}

// DeviceSnapshot – состояние устройства, отправляемое во внешние брокеры.
type DeviceSnapshot struct {
	ID             string    `json:"id" msgpack:"id"`
	Name           string    `json:"name" msgpack:"name"`
	Latitude       float64   `json:"lat" msgpack:"lat"`
	Longitude      float64   `json:"lng" msgpack:"lng"`
	Speed          string    `json:"speed" msgpack:"speed"`
	Bearing        string    `json:"bearing" msgpack:"bearing"`
	Battery        string    `json:"battery" msgpack:"battery"`
	BatteryVoltage string    `json:"battery_voltage" msgpack:"battery_voltage"`
	PositionTime   string    `json:"position_time" msgpack:"position_time"`
	Stopped        string    `json:"stopped" msgpack:"stopped"`
	Signal         string    `json:"signal" msgpack:"signal"`
	Satellites     string    `json:"satellites" msgpack:"satellites"`
	Zone           string    `json:"zone" msgpack:"zone"`
	Address        string    `json:"address,omitempty" msgpack:"address"`
	PublishedAt    time.Time `json:"published_at" msgpack:"-"`
}

func (s DeviceSnapshot) ToBytes() ([]byte, error) {
	return json.Marshal(s)
}

func (s DeviceSnapshot) ToMsgpack() ([]byte, error) {
	return msgpack.Marshal(s)
}

func (s DeviceSnapshot) DeviceID() string {
	return s.ID
}

// OsmAndQuery – параметры протокола OsmAnd, который принимает Traccar.
func (s DeviceSnapshot) OsmAndQuery() url.Values {
	q := url.Values{}
	q.Set("id", s.ID)
	q.Set("lat", strconv.FormatFloat(s.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(s.Longitude, 'f', -1, 64))
	q.Set("speed", s.Speed)
	q.Set("bearing", s.Bearing)
	q.Set("batt", s.Battery)
	q.Set("timestamp", s.PositionTime)
	return q
}
