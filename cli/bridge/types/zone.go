package types

// NotHome – состояние трекера вне всех зон.
const NotHome = "not_home"

type Zone struct {
	Name         string
	Center       Position2D
	RadiusMeters float64
}

func (z Zone) Contains(p Position2D) bool {
	return p.IsWithin(z.Center, z.RadiusMeters)
}
