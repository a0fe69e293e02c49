package model

// Vehicle is an identified clone holding a map of Components. Vehicles
// are shared: both the owning Simulator and any Controllers bound to it
// may hold a live reference to the same *Vehicle.
type Vehicle struct {
	name       string
	components map[string]*Component
}

// NewVehicle constructs a named, empty Vehicle.
func NewVehicle(name string) *Vehicle {
	return &Vehicle{name: name, components: map[string]*Component{}}
}

func (v *Vehicle) Name() string { return v.name }

// AddComponent registers c under its name.
func (v *Vehicle) AddComponent(c *Component) {
	v.components[c.Name()] = c
}

// Component looks up a component by name.
func (v *Vehicle) Component(name string) (*Component, bool) {
	c, ok := v.components[name]
	return c, ok
}

// Components returns every component this vehicle holds, in no
// particular order.
func (v *Vehicle) Components() []*Component {
	out := make([]*Component, 0, len(v.components))
	for _, c := range v.components {
		out = append(out, c)
	}
	return out
}
