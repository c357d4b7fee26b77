package drone

// Status is the drone operational state.
type Status string

const (
	StatusIdle        Status = "idle"
	StatusInTransit   Status = "in_transit"
	StatusDelivering  Status = "delivering"
	StatusReturning   Status = "returning"
	StatusCharging    Status = "charging"
	StatusMaintenance Status = "maintenance"
	StatusEmergency   Status = "emergency"
)

// transitions is the closed allowed-transition table. EMERGENCY is reachable
// from every state and terminal until the external maintenance workflow
// resolves it. IN_TRANSIT may collapse directly to IDLE because delivery
// drop-off is treated as instantaneous at route completion.
var transitions = map[Status][]Status{
	StatusIdle:        {StatusInTransit, StatusCharging, StatusMaintenance},
	StatusInTransit:   {StatusDelivering, StatusReturning, StatusIdle},
	StatusDelivering:  {StatusReturning, StatusIdle},
	StatusReturning:   {StatusIdle},
	StatusCharging:    {StatusIdle},
	StatusMaintenance: {StatusIdle},
	StatusEmergency:   {StatusMaintenance, StatusReturning},
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	if next == StatusEmergency {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
