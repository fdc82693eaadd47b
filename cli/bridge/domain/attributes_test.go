package domain

import (
	"testing"

	"github.com/daniil11ru/tracksync/cli/bridge/types"
	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Van", "van"},
		{"Renault Master 2.3", "renault_master_2_3"},
		{"  Car #1 (blue) ", "car_1_blue"},
		{"Citroën", "citroen"},
		{"João", "joao"},
		{"Жук 2", "zhuk_2"},
		{"---", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

func TestEntityNamer(t *testing.T) {
	namer := EntityNamer{Prefix: "tracker"}

	van := types.DeviceRecord{ID: "42", Name: "Blue Van"}
	assert.Equal(t, "sensor.tracker_blue_van_battery", namer.Sensor(van, "_battery"))
	assert.Equal(t, "device_tracker.tracker_blue_van", namer.Tracker(van))

	unnamed := types.DeviceRecord{ID: "42"}
	assert.Equal(t, "device_tracker.tracker_42", namer.Tracker(unnamed))

	assert.Equal(t, "device_tracker.blue_van", EntityNamer{}.Tracker(van))
}

func TestDeviceAttributes(t *testing.T) {
	record := types.DeviceRecord{
		ID:             "42",
		Name:           "Van",
		Position:       types.Position2D{Latitude: 38.7223, Longitude: -9.1393},
		Speed:          "12",
		Bearing:        "90",
		BatteryVoltage: "12.5",
		PositionTime:   "2024-05-01 10:00:00",
		Stopped:        "false",
	}

	attrs := DeviceAttributes(record)
	assert.Len(t, attrs, 14)
	assert.Equal(t, Attribute{"_id", "42"}, attrs[0])
	assert.Equal(t, Attribute{"_latitude", "38.7223"}, attrs[1])
	assert.Equal(t, Attribute{"_battery", "75"}, attrs[6])
	assert.Equal(t, "_satellites_beidou", attrs[13].Suffix)

	tracker := TrackerAttributes(record, attrs)
	assert.Equal(t, 38.7223, tracker["latitude"])
	assert.Equal(t, -9.1393, tracker["longitude"])
	assert.Equal(t, "12.5", tracker["battery_voltage"])
	assert.Equal(t, "75", tracker["battery"])
	assert.Equal(t, "Van", tracker["name"])
	assert.NotContains(t, tracker, "_id")
}
