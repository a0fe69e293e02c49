// Package plugin implements discovery, ABI loading, and caching of cloe
// model plugins: shared objects exporting a manifest and a factory
// function for one of simulator/vehicle-component/controller.
package plugin

import "fmt"

// Type is the kind of model a plugin factory produces.
type Type string

const (
	TypeSimulator  Type = "simulator"
	TypeComponent  Type = "component"
	TypeController Type = "controller"
)

func (t Type) Valid() bool {
	switch t {
	case TypeSimulator, TypeComponent, TypeController:
		return true
	}
	return false
}

// ManifestVersion distinguishes the two manifest layouts a plugin may
// export. V0 is the legacy three-string form; V1 adds an explicit
// loader-mode flag.
type ManifestVersion byte

const (
	ManifestV0 ManifestVersion = 0
	ManifestV1 ManifestVersion = 1
)

// DlopenMode mirrors the loader-mode flags a V1 manifest can request.
// Go's plugin package only ever opens with the equivalent of "local,
// lazy", so Modes other than ModeDefault are accepted but have no
// runtime effect — recorded so a manifest round-trips through the cache
// unchanged.
type DlopenMode int

const (
	ModeDefault DlopenMode = iota
	ModeGlobal
	ModeNow
)

// Manifest is the metadata a plugin exports about itself, read once at
// probe time and cached thereafter keyed by canonical path and content
// hash.
type Manifest struct {
	CanonicalPath string
	ShortName     string
	Type          Type
	TypeVersion   string
	ABIVersion    ManifestVersion
	DlopenMode    DlopenMode
	FactorySymbol string
	ContentHash   string
}

// compiled-in type versions the registry checks a manifest's
// TypeVersion against. Mismatches are rejected at probe time per the
// "mismatched API version against the engine's compiled-in versions"
// rule.
const (
	SimulatorTypeVersion  = "4.0"
	ComponentTypeVersion  = "4.0"
	ControllerTypeVersion = "4.0"
)

func compiledTypeVersion(t Type) (string, error) {
	switch t {
	case TypeSimulator:
		return SimulatorTypeVersion, nil
	case TypeComponent:
		return ComponentTypeVersion, nil
	case TypeController:
		return ControllerTypeVersion, nil
	default:
		return "", fmt.Errorf("unknown plugin type %q", t)
	}
}

// Validate checks a manifest against the registry's static rules: known
// type, and a type version matching the engine's compiled constant.
func (m *Manifest) Validate() error {
	if !m.Type.Valid() {
		return fmt.Errorf("unknown plugin type %q (must be simulator, component, or controller)", m.Type)
	}
	want, err := compiledTypeVersion(m.Type)
	if err != nil {
		return err
	}
	if m.TypeVersion != want {
		return fmt.Errorf("plugin %s: type_version %q does not match engine's compiled version %q", m.CanonicalPath, m.TypeVersion, want)
	}
	return nil
}
