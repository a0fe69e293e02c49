// Package registrar implements the narrow enrollment surface a Model
// receives during connect → enroll: registering the event/action names
// it contributes to the trigger factory, and publishing/aliasing/binding
// typed signals into the data broker.
package registrar

import (
	"fmt"
	"net/http"

	"github.com/cloe-engine/cloe/internal/trigger"
)

// SignalType describes a published signal's shape for the Probe state's
// signal table (name -> type descriptor).
type SignalType string

const (
	SignalBool   SignalType = "bool"
	SignalInt    SignalType = "int"
	SignalFloat  SignalType = "float"
	SignalString SignalType = "string"
	SignalVector SignalType = "vector"
)

type signalEntry struct {
	typ      SignalType
	aliasOf  string // non-empty if this name is an alias for another signal
	bound    bool
}

// Registrar is handed to a Model's Enroll method. It collects the
// event/action names the model contributes (so the coordinator can
// validate "inserting a trigger whose event kind has no Callback" never
// happens for model-declared events) and the signals it publishes.
type Registrar struct {
	factory   *trigger.Factory
	owner     string
	events    []string
	actions   []string
	signals   map[string]*signalEntry
	endpoints []APIEndpoint
}

// APIEndpoint is one plugin-contributed HTTP route, surfaced to the
// PROBE state's http_endpoints listing and mounted by the dev server.
type APIEndpoint struct {
	Path    string
	Method  string
	Owner   string
	Handler http.HandlerFunc
}

// New builds a Registrar for owner (the enrolling model's name),
// delegating event/action construction to factory.
func New(owner string, factory *trigger.Factory) *Registrar {
	return &Registrar{factory: factory, owner: owner, signals: map[string]*signalEntry{}}
}

// RegisterEvent records that owner contributes event name kind. Actual
// Callback registration happens at the coordinator, which calls
// EnrolledEvents after Enroll returns.
func (r *Registrar) RegisterEvent(name string) error {
	r.events = append(r.events, name)
	return nil
}

// RegisterAction records that owner contributes action name.
func (r *Registrar) RegisterAction(name string) error {
	r.actions = append(r.actions, name)
	return nil
}

// EnrolledEvents and EnrolledActions return everything this model
// registered during Enroll, for the coordinator to wire up Callbacks
// against.
func (r *Registrar) EnrolledEvents() []string  { return append([]string(nil), r.events...) }
func (r *Registrar) EnrolledActions() []string { return append([]string(nil), r.actions...) }

// RegisterAPIHandler contributes an HTTP route the dev server mounts
// under its own path (distinct from the built-in /api/* route table),
// letting a model expose plugin-specific inspection endpoints.
func (r *Registrar) RegisterAPIHandler(path, method string, handler http.HandlerFunc) error {
	r.endpoints = append(r.endpoints, APIEndpoint{Path: path, Method: method, Owner: r.owner, Handler: handler})
	return nil
}

// EnrolledEndpoints returns every HTTP route this model registered.
func (r *Registrar) EnrolledEndpoints() []APIEndpoint {
	return append([]APIEndpoint(nil), r.endpoints...)
}

// PublishSignal declares a new typed signal under name.
func (r *Registrar) PublishSignal(name string, typ SignalType) error {
	if _, exists := r.signals[name]; exists {
		return fmt.Errorf("signal %q already published by %s", name, r.owner)
	}
	r.signals[name] = &signalEntry{typ: typ}
	return nil
}

// Alias gives an existing signal a second name. Both alias and bind must
// happen in CONNECT, before START; either failing is a model error.
func (r *Registrar) Alias(source, alias string) error {
	src, ok := r.signals[source]
	if !ok {
		return fmt.Errorf("cannot alias unknown signal %q", source)
	}
	if _, exists := r.signals[alias]; exists {
		return fmt.Errorf("alias name %q already in use", alias)
	}
	r.signals[alias] = &signalEntry{typ: src.typ, aliasOf: source}
	return nil
}

// Bind makes a signal visible to the scripting runtime.
func (r *Registrar) Bind(name string) error {
	sig, ok := r.signals[name]
	if !ok {
		return fmt.Errorf("cannot bind unknown signal %q", name)
	}
	sig.bound = true
	return nil
}

// SignalTableEntry is one row of the Probe state's signal table.
type SignalTableEntry struct {
	Name    string
	Type    SignalType
	AliasOf string
	Bound   bool
}

// SignalTable returns every published signal (including aliases) for
// the Probe state to enumerate, sorted by name for determinism.
func (r *Registrar) SignalTable() []SignalTableEntry {
	names := make([]string, 0, len(r.signals))
	for n := range r.signals {
		names = append(names, n)
	}
	// simple insertion sort: avoids importing "sort" for a handful of
	// signals per model and keeps this package's import list minimal
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
	out := make([]SignalTableEntry, 0, len(names))
	for _, n := range names {
		sig := r.signals[n]
		out = append(out, SignalTableEntry{Name: n, Type: sig.typ, AliasOf: sig.aliasOf, Bound: sig.bound})
	}
	return out
}
