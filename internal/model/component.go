package model

// Component is a polymorphic sensor/actuator Model, possibly derived
// from another Component by dependency (e.g. a fusion component reading
// a raw sensor component's signal). Components are shared for this
// reason: one Component may be derived from another, and both may be
// referenced independently.
type Component struct {
	Base
	derivedFrom *Component
}

// NewComponent constructs a component with no dependency.
func NewComponent(name string) *Component {
	return &Component{Base: NewBase(name)}
}

// DeriveFrom marks this component as depending on parent (e.g. reading
// its published signal during process()).
func (c *Component) DeriveFrom(parent *Component) {
	c.derivedFrom = parent
}

// DerivedFrom returns the component this one depends on, or nil.
func (c *Component) DerivedFrom() *Component { return c.derivedFrom }
