package drone

// Specification is the immutable performance envelope of a drone model.
type Specification struct {
	Model                string  `json:"model"`
	MaxSpeed             float64 `json:"max_speed"`              // m/s
	MaxPayload           float64 `json:"max_payload"`            // kg
	MaxAltitude          float64 `json:"max_altitude"`           // m
	MinAltitude          float64 `json:"min_altitude"`           // m
	MaxWindSpeed         float64 `json:"max_wind_speed"`         // m/s
	BatteryCapacity      float64 `json:"battery_capacity"`       // Wh
	PowerConsumptionRate float64 `json:"power_consumption_rate"` // battery percent per km
}

// SpecForModel returns the performance envelope for a known model name.
// Unknown models get the courier preset.
func SpecForModel(model string) Specification {
	switch model {
	case "heavy-lifter":
		return Specification{
			Model:                model,
			MaxSpeed:             16,
			MaxPayload:           8,
			MaxAltitude:          300,
			MinAltitude:          50,
			MaxWindSpeed:         12,
			BatteryCapacity:      900,
			PowerConsumptionRate: 0.8,
		}
	case "long-range":
		return Specification{
			Model:                model,
			MaxSpeed:             25,
			MaxPayload:           1.5,
			MaxAltitude:          450,
			MinAltitude:          60,
			MaxWindSpeed:         18,
			BatteryCapacity:      700,
			PowerConsumptionRate: 0.4,
		}
	default:
		return Specification{
			Model:                "courier-x1",
			MaxSpeed:             20,
			MaxPayload:           2.5,
			MaxAltitude:          400,
			MinAltitude:          50,
			MaxWindSpeed:         15,
			BatteryCapacity:      500,
			PowerConsumptionRate: 0.6,
		}
	}
}
