package stack

import (
	"github.com/cloe-engine/cloe/internal/confval"
)

// ApplyDefaults applies the merged /defaults block to every simulator,
// vehicle, and controller entry that does not already set the same
// key: defaults never override an entity's own explicit value, only
// fill gaps.
func (s *Stack) ApplyDefaults() {
	root := s.conf.Root()
	defaultsVal, ok := root["defaults"]
	if !ok {
		return
	}
	defaults, ok := defaultsVal.(confval.Map)
	if !ok {
		return
	}

	applyTo := func(key string) {
		entityDefaultsVal, ok := defaults[key]
		if !ok {
			return
		}
		entityDefaults, ok := entityDefaultsVal.(confval.Map)
		if !ok {
			return
		}
		arrVal, ok := root[key]
		if !ok {
			return
		}
		arr, ok := arrVal.(confval.Array)
		if !ok {
			return
		}
		for _, item := range arr {
			m, ok := item.(confval.Map)
			if !ok {
				continue
			}
			for dk, dv := range entityDefaults {
				if _, already := m[dk]; !already {
					m[dk] = dv
				}
			}
		}
	}

	applyTo("simulators")
	applyTo("vehicles")
	applyTo("controllers")
}
