package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalConfig is the §8 scenario 1 configuration: one simulator, one
// vehicle, one controller, all bound to a "nop" plugin that is never
// actually loaded in these tests (no .so is present in the test
// environment) — exercising the configuration-loading and validation
// paths without requiring a real plugin.
const minimalConfig = `{
  "version": "4.1",
  "simulators": [{"binding": "nop"}],
  "vehicles": [{"name": "v", "from": {"simulator": "nop"}}],
  "controllers": [{"binding": "nop", "vehicle": "v"}],
  "triggers": [{"event": "start", "action": "succeed"}],
  "simulation": {"model_step_width": 20000000}
}`

func writeConfigFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

// TestCheckCommandValid exercises `cloe check` end to end against a
// config that satisfies every structural invariant §4.1 validates.
func TestCheckCommandValid(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, "stack.json", minimalConfig)

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"check", "-s", path})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "ok\n", out.String())
}

// TestCheckCommandVersionMismatch exercises §8 scenario 3: a config
// naming an unsupported version fails to even load, with a
// remediation-bearing message naming the supported version, mapped to
// the command-error exit code (the version check runs in FromConf,
// before check's own validate-and-report step is reached).
func TestCheckCommandVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, "stack.json", `{"version": "3"}`)

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"check", path})

	err := cmd.Execute()
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitCommandError, exitErr.Code)
	assert.Contains(t, err.Error(), "4.1")
}

// TestCheckCommandMissingControllerReference exercises the unresolved
// reference check: a controller naming a vehicle that does not exist.
func TestCheckCommandMissingControllerReference(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, "stack.json", `{
  "version": "4.1",
  "simulators": [{"binding": "nop"}],
  "vehicles": [{"name": "v", "from": {"simulator": "nop"}}],
  "controllers": [{"binding": "nop", "vehicle": "does-not-exist"}]
}`)

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"check", "-s", path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, "invalid\n", out.String())
}

// TestRunCommandMissingPluginFails drives `cloe run` against a valid
// stack whose "nop" binding resolves to nothing, since no plugin is
// ever loaded: the run must fail before any model is touched, with the
// specific unresolved-binding message and the command-error exit code.
func TestRunCommandMissingPluginFails(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, "stack.json", minimalConfig)

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"run", "--uuid", "00000000-0000-0000-0000-000000000000", path})

	err := cmd.Execute()
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitCommandError, exitErr.Code)
	assert.Contains(t, err.Error(), `no loaded plugin provides binding "nop"`)
}

// TestDumpCommandRoundTrip exercises `cloe dump`: the printed tree must
// be valid JSON and must echo back the fields of the source config
// (dump merges the layers and applies the /defaults block like check,
// but runs no schema validation).
func TestDumpCommandRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, "stack.json", minimalConfig)

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"dump", path})

	require.NoError(t, cmd.Execute())

	var tree map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &tree))
	assert.Equal(t, "4.1", tree["version"])
	sims, ok := tree["simulators"].([]any)
	require.True(t, ok)
	assert.Len(t, sims, 1)
}
