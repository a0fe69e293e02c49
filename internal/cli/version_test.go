package cli

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// TestVersionCommandJSON exercises the `version -j -J` path end to end
// through the cobra command tree and compares the indented JSON output
// against a golden fixture.
func TestVersionCommandJSON(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "-j", "-J"})

	require.NoError(t, cmd.Execute())

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))
	g.Assert(t, "version_json", out.Bytes())
}

// TestVersionCommandText exercises the plain-text path.
func TestVersionCommandText(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	require.Equal(t, Version+"\n", out.String())
}
