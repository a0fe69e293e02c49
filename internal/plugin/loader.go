package plugin

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	pluginpkg "plugin"
)

// Factory builds a fresh Model instance. It is the Go-rendition
// equivalent of the C ABI's ModelFactory*() symbol: a plugin exports one
// function value of this type under the name its manifest names as
// FactorySymbol.
type Factory func() any

// rawManifest is the shape a plugin is expected to export as the Go
// symbol "CloePluginManifest". Plugins built against this package export
// a value of this type instead of a raw C struct layout, since Go's
// plugin package resolves exported Go symbols rather than arbitrary C
// structs; Probe rejects a symbol of any other type.
type rawManifest struct {
	Type          string
	TypeVersion   string
	FactorySymbol string
	DlopenMode    int
}

// Probe opens the shared object at path, reads its manifest, and
// resolves its factory symbol, following the protocol: read the version
// byte first (absence implies V0), then the manifest for that version,
// then the factory symbol it names.
func Probe(path string) (*Manifest, Factory, error) {
	hash, err := contentHash(path)
	if err != nil {
		return nil, nil, fmt.Errorf("hash %s: %w", path, err)
	}

	p, err := pluginpkg.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}

	version := ManifestV0
	if sym, err := p.Lookup("CloePluginManifestVersion"); err == nil {
		if v, ok := sym.(*byte); ok {
			version = ManifestVersion(*v)
		}
	}

	manSym, err := p.Lookup("CloePluginManifest")
	if err != nil {
		return nil, nil, fmt.Errorf("%s: missing CloePluginManifest symbol: %w", path, err)
	}
	raw, ok := manSym.(*rawManifest)
	if !ok {
		return nil, nil, fmt.Errorf("%s: CloePluginManifest has unexpected type %T", path, manSym)
	}

	m := &Manifest{
		CanonicalPath: path,
		Type:          Type(raw.Type),
		TypeVersion:   raw.TypeVersion,
		ABIVersion:    version,
		DlopenMode:    DlopenMode(raw.DlopenMode),
		FactorySymbol: raw.FactorySymbol,
		ContentHash:   hash,
	}
	if err := m.Validate(); err != nil {
		return nil, nil, err
	}

	factorySym, err := p.Lookup(m.FactorySymbol)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: missing factory symbol %q: %w", path, m.FactorySymbol, err)
	}
	factory, ok := factorySym.(func() any)
	if !ok {
		return nil, nil, fmt.Errorf("%s: factory symbol %q has unexpected type %T", path, m.FactorySymbol, factorySym)
	}

	return m, Factory(factory), nil
}

func contentHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
