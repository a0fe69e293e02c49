package stack

// SupportedVersions is the engine's accepted set of config `version`
// values. A Stack whose version isn't in this set fails with a
// user-facing remediation error, not a schema error (§4.1 step 1).
var SupportedVersions = map[string]bool{
	"4.0": true,
	"4.1": true,
}

// ReservedNames may not be used as a simulator/vehicle/controller/plugin
// short name, alongside whatever names are already taken across those
// four namespaces.
var ReservedNames = map[string]bool{
	"cloe":       true,
	"sim":        true,
	"simulation": true,
	"_":          true,
}

// SecuritySettings mirrors `/engine/security` in a merged Stack.
type SecuritySettings struct {
	EnableHooks          bool
	EnableCommandAction  bool
	MaxIncludeDepth      int
	SecureMode           bool
}

// DefaultSecuritySettings returns the default of 64 for
// max_include_depth and permissive defaults otherwise.
func DefaultSecuritySettings() SecuritySettings {
	return SecuritySettings{
		EnableHooks:         true,
		EnableCommandAction: true,
		MaxIncludeDepth:     64,
		SecureMode:          false,
	}
}

// Hooks mirrors `/engine/hooks`: shell commands run around CONNECT and
// DISCONNECT (see the corrected CONNECT-not-START timing in §3a).
type Hooks struct {
	PreConnect    []string
	PostDisconnect []string
}

// PluginEntry mirrors one entry under `/plugins`.
type PluginEntry struct {
	Path          string
	Name          string
	IgnoreMissing bool
	IgnoreFailure bool
	AllowClobber  bool
}
