package stack

import (
	"fmt"

	"github.com/cloe-engine/cloe/internal/confval"
	"github.com/cloe-engine/cloe/internal/schema"
)

// Validate runs residual checks that the CUE schema cannot express on
// its own: cross-namespace uniqueness, reserved names, and reference
// resolution between vehicles and controllers. It also runs the merged
// tree through the CUE #Stack definition first, surfacing schema
// errors before these structural ones.
func (s *Stack) Validate(reg *schema.Registry) error {
	root := s.conf.Root()

	if schemaErrs, err := reg.Validate("#Stack", root); err != nil {
		return &Error{Code: ErrMissingRequired, Message: err.Error()}
	} else if len(schemaErrs) > 0 {
		first := schemaErrs[0]
		return &Error{Code: ErrMissingRequired, Message: first.Message, Pointer: first.Field}
	}

	names := map[string]string{} // name -> namespace, for duplicate detection across namespaces
	checkName := func(namespace, name, pointer string) error {
		if ReservedNames[name] {
			return &Error{Code: ErrReservedName, Message: fmt.Sprintf("%q is a reserved name", name), Pointer: pointer}
		}
		if prior, ok := names[name]; ok {
			return &Error{Code: ErrDuplicateShortName, Message: fmt.Sprintf("name %q used in both %s and %s", name, prior, namespace), Pointer: pointer}
		}
		names[name] = namespace
		return nil
	}

	simulators, _ := getArray(root, "simulators")
	vehicles, _ := getArray(root, "vehicles")
	controllers, _ := getArray(root, "controllers")

	if len(simulators) == 0 {
		return &Error{Code: ErrIncompleteStack, Message: "stack must define at least one simulator", Pointer: "/simulators"}
	}
	if len(vehicles) == 0 {
		return &Error{Code: ErrIncompleteStack, Message: "stack must define at least one vehicle", Pointer: "/vehicles"}
	}
	if len(controllers) == 0 {
		return &Error{Code: ErrIncompleteStack, Message: "stack must define at least one controller", Pointer: "/controllers"}
	}

	vehicleNames := map[string]bool{}
	simulatorNames := map[string]bool{}
	for i, v := range simulators {
		m, ok := v.(confval.Map)
		if !ok {
			continue
		}
		name, _ := stringField(m, "name")
		binding, _ := stringField(m, "binding")
		if name == "" {
			name = binding
		}
		if err := checkName("simulator", name, fmt.Sprintf("/simulators/%d/name", i)); err != nil {
			return err
		}
		simulatorNames[name] = true
		simulatorNames[binding] = true
	}
	for i, v := range vehicles {
		m, ok := v.(confval.Map)
		if !ok {
			continue
		}
		name, _ := stringField(m, "name")
		if err := checkName("vehicle", name, fmt.Sprintf("/vehicles/%d/name", i)); err != nil {
			return err
		}
		vehicleNames[name] = true

		if fromMap, ok := m["from"].(confval.Map); ok {
			sim, _ := stringField(fromMap, "simulator")
			if sim != "" && !simulatorNames[sim] {
				return &Error{
					Code:    ErrUnresolvedRef,
					Message: fmt.Sprintf("vehicle %q references unknown simulator %q", name, sim),
					Pointer: fmt.Sprintf("/vehicles/%d/from/simulator", i),
				}
			}
		}
	}
	for i, v := range controllers {
		m, ok := v.(confval.Map)
		if !ok {
			continue
		}
		name, _ := stringField(m, "name")
		if err := checkName("controller", name, fmt.Sprintf("/controllers/%d/name", i)); err != nil {
			return err
		}
		vehicle, _ := stringField(m, "vehicle")
		if vehicle != "" && !vehicleNames[vehicle] {
			return &Error{
				Code:    ErrUnresolvedRef,
				Message: fmt.Sprintf("controller %q references unknown vehicle %q", name, vehicle),
				Pointer: fmt.Sprintf("/controllers/%d/vehicle", i),
			}
		}
	}

	return nil
}

func getArray(root confval.Map, key string) (confval.Array, bool) {
	v, ok := root[key]
	if !ok {
		return nil, false
	}
	arr, ok := v.(confval.Array)
	return arr, ok
}

func stringField(m confval.Map, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(confval.String)
	return string(s), ok
}
