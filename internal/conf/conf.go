// Package conf implements the in-memory configuration tree that backs
// cloe's Stack model: a confval.Value tree annotated with provenance
// (which file last set each node) plus JSON-pointer addressed
// read/write/erase and layered merge.
package conf

import (
	"fmt"
	"strconv"

	"github.com/cloe-engine/cloe/internal/confval"
)

// Conf wraps a confval.Map root with per-node provenance tracking, the
// way the Stack configuration is built up by merging the system config,
// zero or more included stack files, and command-line overrides in turn.
type Conf struct {
	root       confval.Map
	provenance map[string]string // pointer string -> origin file
}

// New returns an empty Conf.
func New() *Conf {
	return &Conf{root: confval.Map{}, provenance: map[string]string{}}
}

// FromValue wraps an existing confval.Map as the root of a new Conf,
// recording origin as every node's provenance.
func FromValue(root confval.Map, origin string) *Conf {
	c := &Conf{root: root, provenance: map[string]string{}}
	c.markProvenance(Pointer{}, origin)
	return c
}

// Root returns the underlying value tree.
func (c *Conf) Root() confval.Map {
	return c.root
}

// Get resolves a pointer to a value. Returns *Error(ErrNotFound) if any
// segment does not resolve.
func (c *Conf) Get(pointer string) (confval.Value, error) {
	p, err := ParsePointer(pointer)
	if err != nil {
		return nil, err
	}
	return resolve(c.root, p, pointer)
}

// GetOr resolves a pointer, returning def if the pointer does not exist.
// Any other error (malformed pointer, type mismatch while traversing) is
// still returned.
func (c *Conf) GetOr(pointer string, def confval.Value) (confval.Value, error) {
	v, err := c.Get(pointer)
	if err != nil {
		if cerr, ok := err.(*Error); ok && cerr.Code == ErrNotFound {
			return def, nil
		}
		return nil, err
	}
	return v, nil
}

func resolve(root confval.Value, p Pointer, full string) (confval.Value, error) {
	cur := root
	for i, tok := range p {
		switch node := cur.(type) {
		case confval.Map:
			v, ok := node[tok]
			if !ok {
				return nil, newError(ErrNotFound, fmt.Sprintf("no key %q", tok), "", full)
			}
			cur = v
		case confval.Array:
			idx, err := strconv.Atoi(tok)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, newError(ErrNotFound, fmt.Sprintf("index %q out of range", tok), "", full)
			}
			cur = node[idx]
		default:
			return nil, newError(ErrTypeMismatch, fmt.Sprintf("cannot descend into scalar at segment %d", i), "", full)
		}
	}
	return cur, nil
}

// Set writes a value at pointer, creating intermediate maps as needed. It
// records origin as the provenance for the written node.
func (c *Conf) Set(pointer string, value confval.Value, origin string) error {
	p, err := ParsePointer(pointer)
	if err != nil {
		return err
	}
	if len(p) == 0 {
		m, ok := value.(confval.Map)
		if !ok {
			return newError(ErrTypeMismatch, "root value must be a map", origin, pointer)
		}
		c.root = m
		c.markProvenance(Pointer{}, origin)
		return nil
	}
	if err := setIn(c.root, p, value); err != nil {
		return &Error{Code: err.(*Error).Code, Message: err.(*Error).Message, File: origin, Pointer: pointer}
	}
	c.provenance[p.String()] = origin
	return nil
}

func setIn(root confval.Map, p Pointer, value confval.Value) error {
	cur := root
	for i, tok := range p[:len(p)-1] {
		next, ok := cur[tok]
		if !ok {
			child := confval.Map{}
			cur[tok] = child
			cur = child
			continue
		}
		child, ok := next.(confval.Map)
		if !ok {
			return newError(ErrTypeMismatch, fmt.Sprintf("segment %d is not a map", i), "", p.String())
		}
		cur = child
	}
	cur[p[len(p)-1]] = value
	return nil
}

// Erase removes the node at pointer, returning *Error(ErrNotFound) if it
// did not exist. Erasing the root clears the whole tree.
func (c *Conf) Erase(pointer string) error {
	p, err := ParsePointer(pointer)
	if err != nil {
		return err
	}
	if len(p) == 0 {
		c.root = confval.Map{}
		c.provenance = map[string]string{}
		return nil
	}
	parent, err := resolve(c.root, p[:len(p)-1], pointer)
	if err != nil {
		return err
	}
	m, ok := parent.(confval.Map)
	if !ok {
		return newError(ErrTypeMismatch, "parent is not a map", "", pointer)
	}
	leaf := p[len(p)-1]
	if _, ok := m[leaf]; !ok {
		return newError(ErrNotFound, fmt.Sprintf("no key %q", leaf), "", pointer)
	}
	delete(m, leaf)
	delete(c.provenance, p.String())
	return nil
}

// ProvenanceOf returns the origin file recorded for the node at pointer,
// or "" if no write ever touched that exact pointer (it may still exist,
// inherited from an ancestor's write).
func (c *Conf) ProvenanceOf(pointer string) string {
	return c.provenance[pointer]
}

func (c *Conf) markProvenance(p Pointer, origin string) {
	c.provenance[p.String()] = origin
}

// Merge layers other on top of c: maps are merged key-by-key recursively,
// arrays are extended (other's elements appended after c's), any other
// type is replaced wholesale, and every
// overwritten or newly-introduced node's provenance becomes origin. This
// mirrors how Stack assembly layers includes and CLI overrides on top of
// the base system config.
func (c *Conf) Merge(other confval.Map, origin string) {
	c.root = mergeMaps(c.root, other)
	c.markOverridesProvenance(Pointer{}, other, origin)
}

func mergeMaps(base, overlay confval.Map) confval.Map {
	out := make(confval.Map, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		if existing, ok := out[k]; ok {
			if baseMap, ok1 := existing.(confval.Map); ok1 {
				if overlayMap, ok2 := v.(confval.Map); ok2 {
					out[k] = mergeMaps(baseMap, overlayMap)
					continue
				}
			}
			if baseArr, ok1 := existing.(confval.Array); ok1 {
				if overlayArr, ok2 := v.(confval.Array); ok2 {
					out[k] = append(append(confval.Array{}, baseArr...), overlayArr...)
					continue
				}
			}
		}
		out[k] = v
	}
	return out
}

func (c *Conf) markOverridesProvenance(prefix Pointer, overlay confval.Map, origin string) {
	for k, v := range overlay {
		p := append(append(Pointer{}, prefix...), k)
		if m, ok := v.(confval.Map); ok {
			c.markOverridesProvenance(p, m, origin)
			continue
		}
		c.provenance[p.String()] = origin
	}
}
