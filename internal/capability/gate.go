package capability

import "github.com/upb/dak-console/models"

// GateState is the render decision for one interactive control.
type GateState struct {
	Visible bool `json:"visible"`
	Enabled bool `json:"enabled"`
}

// Gate decides a control's state. The control is visible when the session
// holds capability and the local business condition allows it; a visible
// control starts enabled.
func (r *Resolver) Gate(s *models.Session, capability string, localCondition bool) GateState {
	visible := localCondition && r.Can(s, capability)
	return GateState{Visible: visible, Enabled: visible}
}

// Busy disables the control while a request for its entity is in flight.
func (g GateState) Busy(inFlight bool) GateState {
	if inFlight {
		g.Enabled = false
	}
	return g
}
