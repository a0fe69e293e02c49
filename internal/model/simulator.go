package model

// Simulator is the owner of one or more Vehicles, uniquely owned by the
// Simulation itself.
type Simulator struct {
	Base
	vehicles map[string]*Vehicle
}

// NewSimulator constructs an empty Simulator (embedders call this from
// their own constructor before filling in plugin-specific state).
func NewSimulator(name string) *Simulator {
	return &Simulator{Base: NewBase(name), vehicles: map[string]*Vehicle{}}
}

// AddVehicle registers v under its name. Vehicles are shared (a
// Controller may hold the same *Vehicle), so this stores the pointer,
// not a copy.
func (s *Simulator) AddVehicle(v *Vehicle) {
	s.vehicles[v.Name()] = v
}

// Vehicle looks up a previously added vehicle by name.
func (s *Simulator) Vehicle(name string) (*Vehicle, bool) {
	v, ok := s.vehicles[name]
	return v, ok
}

// Vehicles returns every vehicle this simulator owns, in no particular
// order; callers that need determinism should sort by name themselves.
func (s *Simulator) Vehicles() []*Vehicle {
	out := make([]*Vehicle, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		out = append(out, v)
	}
	return out
}
