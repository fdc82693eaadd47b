package types

import "math"

const EarthRadiusMeters = 6371000.0

type Position2D struct {
	Latitude  float64
	Longitude float64
}

// Distance возвращает расстояние по большому кругу (гаверсинус) в метрах.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(x float64) float64 { return x * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	s := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(s)))
}

func (p Position2D) DistanceTo(position Position2D) float64 {
	return Distance(p.Latitude, p.Longitude, position.Latitude, position.Longitude)
}

func (p Position2D) IsWithin(position Position2D, radiusMeters float64) bool {
	return p.DistanceTo(position) <= radiusMeters
}
