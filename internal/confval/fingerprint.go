package confval

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain-separated hash prefixes for content-addressed identity. The null
// byte separator between domain and payload prevents a crafted payload
// from forging a different domain's hash.
const (
	DomainTriggerFingerprint = "cloe/trigger-fingerprint/v1"
	DomainPluginManifest     = "cloe/plugin-manifest/v1"
	DomainStackConfig        = "cloe/stack-config/v1"
)

func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TriggerFingerprint computes the content-addressed identity of a trigger
// firing: event name, action name, and their arguments. Two triggers with
// the same fingerprint observed in the same cycle are candidates for the
// at-most-one-per-cycle de-duplication the coordinator enforces.
func TriggerFingerprint(eventName string, eventArgs Map, actionName string, actionArgs Map) (string, error) {
	obj := Map{
		"event":      String(eventName),
		"event_args": eventArgs,
		"action":     String(actionName),
		"action_args": actionArgs,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("trigger fingerprint: %w", err)
	}
	return hashWithDomain(DomainTriggerFingerprint, canonical), nil
}

// PluginManifestHash computes a stable identity for a plugin manifest so
// the discovery cache can detect when a .so on disk has changed and needs
// re-probing.
func PluginManifestHash(m Map) (string, error) {
	canonical, err := MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("plugin manifest hash: %w", err)
	}
	return hashWithDomain(DomainPluginManifest, canonical), nil
}

// StackConfigHash computes a stable identity for a fully merged and
// validated Stack configuration, used for the simulation UUID's
// provenance metadata and for test golden-file keys.
func StackConfigHash(m Map) (string, error) {
	canonical, err := MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("stack config hash: %w", err)
	}
	return hashWithDomain(DomainStackConfig, canonical), nil
}

// MustTriggerFingerprint panics on error; use only with known-valid trees
// (e.g. values already round-tripped through confval.Unmarshal).
func MustTriggerFingerprint(eventName string, eventArgs Map, actionName string, actionArgs Map) string {
	id, err := TriggerFingerprint(eventName, eventArgs, actionName, actionArgs)
	if err != nil {
		panic(err)
	}
	return id
}
