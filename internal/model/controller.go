package model

// Controller is bound to exactly one Vehicle for its whole lifetime,
// uniquely owned by the Simulation (unlike Vehicle, which is shared).
type Controller struct {
	Base
	vehicle *Vehicle
}

// NewController constructs a Controller bound to vehicle.
func NewController(name string, vehicle *Vehicle) *Controller {
	return &Controller{Base: NewBase(name), vehicle: vehicle}
}

// Vehicle returns the vehicle this controller is bound to.
func (c *Controller) Vehicle() *Vehicle { return c.vehicle }
