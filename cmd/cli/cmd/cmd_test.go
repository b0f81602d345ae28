package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trajectory-stn/core/location"
	"trajectory-stn/internal/config"
	"trajectory-stn/internal/errors"
)

const testSchema = `
parameter "algo" {
  type   = "s"
  kind   = "c"
  values = ["as", "mmas"]
  encoding {
    table = { as = "A", mmas = "M" }
  }
}

parameter "w" {
  type  = "f"
  kind  = "r"
  lower = 0
  upper = 100
  encoding {
    bucket_width = 10
    digits       = 1
  }
}
`

const runHeader = "id algo w elite iteration quality | id algo w elite iteration quality"

type fixture struct {
	dir    string
	runs   string
	schema string
	config string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	fx := fixture{
		dir:    dir,
		runs:   filepath.Join(dir, "runs"),
		schema: filepath.Join(dir, "params.hcl"),
		config: filepath.Join(dir, "stn.json"),
	}
	require.NoError(t, os.Mkdir(fx.runs, 0755))
	write := func(path string, lines ...string) {
		require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	}
	write(fx.schema, testSchema)
	write(fx.config, `{"logging": {"output": "discard"}}`)
	write(filepath.Join(fx.runs, "seed-2.txt"),
		runHeader,
		"1 as 15.0 N 1 30 | 2 as 37.0 N 1 20",
		"2 as 37.0 E 2 20 | 3 as NA N 2 12",
	)
	write(filepath.Join(fx.runs, "seed-1.txt"),
		runHeader,
		"1 as 12.0 N 1 40.25 | 2 mmas 91.5 N 1 17.5",
	)
	return fx
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, stderr bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConvertToStdout(t *testing.T) {
	fx := newFixture(t)

	out, err := execute(t, "--config", fx.config, "convert",
		"--schema", fx.schema, "--statistic", "mean", "--elite", fx.runs)
	require.NoError(t, err)

	want := []string{
		"Run Fitness1 Solution1 Elite1 Fitness2 Solution2 Elite2",
		"1 35.13 A0100 F 17.50 M0900 T",
		"2 35.13 A0100 F 20.00 A0300 T",
		"2 20.00 A0300 T 12.00 Axxxx T",
	}
	if diff := cmp.Diff(want, strings.Split(strings.TrimSuffix(out, "\n"), "\n")); diff != "" {
		t.Errorf("convert output mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertToFile(t *testing.T) {
	fx := newFixture(t)
	outPath := filepath.Join(fx.dir, "stn.txt")

	out, err := execute(t, "--config", fx.config, "convert",
		"--schema", fx.schema, "--dir", fx.runs, "--out", outPath, "--digits", "0", "--workers", "2")
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Run Fitness1 Solution1 Fitness2 Solution2", lines[0])
	assert.Equal(t, "1 30 A0100 18 M0900", lines[1])
}

func TestConvertRejectsBadStatistic(t *testing.T) {
	fx := newFixture(t)

	_, err := execute(t, "--config", fx.config, "convert",
		"--schema", fx.schema, "--statistic", "median", fx.runs)
	assert.True(t, errors.IsType(err, errors.TypeConfig), "got %v", err)
}

func TestConvertWithoutSchema(t *testing.T) {
	fx := newFixture(t)

	_, err := execute(t, "--config", fx.config, "convert", fx.runs)
	assert.True(t, errors.IsType(err, errors.TypeConfig), "got %v", err)
}

func TestSchemaCommand(t *testing.T) {
	fx := newFixture(t)

	out, err := execute(t, "--config", fx.config, "schema", fx.schema)
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "{as, mmas}")
	assert.Contains(t, out, "[0, 100]")
	assert.Regexp(t, `total\s+5`, out)
}

func TestDecodeCommand(t *testing.T) {
	fx := newFixture(t)

	out, err := execute(t, "--config", fx.config, "decode", "--schema", fx.schema, "M0900", "Axxxx")
	require.NoError(t, err)
	assert.Equal(t, "M0900 algo=mmas w=90\nAxxxx algo=as w=NA\n", out)

	out, err = execute(t, "--config", fx.config, "decode", "--schema", fx.schema, "--json", "A0100")
	require.NoError(t, err)
	var decoded map[string][]location.Fragment
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, []location.Fragment{
		{Name: "algo", Code: "A", Value: "as"},
		{Name: "w", Code: "0100", Value: "10"},
	}, decoded["A0100"])

	_, err = execute(t, "--config", fx.config, "decode", "--schema", fx.schema, "A01")
	assert.True(t, errors.IsType(err, errors.TypeDomain), "got %v", err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "stn version "+Version+"\n", out)
}

func TestConvertLogsSummary(t *testing.T) {
	fx := newFixture(t)
	logPath := filepath.Join(fx.dir, "stn.log")
	cfgPath := filepath.Join(fx.dir, "logging.json")
	cfg, err := json.Marshal(map[string]any{
		"logging": map[string]string{"output": logPath, "format": "json", "level": "info"},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfgPath, cfg, 0644))

	_, err = execute(t, "--config", cfgPath, "convert",
		"--schema", fx.schema, "--out", filepath.Join(fx.dir, "stn.txt"), fx.runs)
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"stn written"`)
	assert.Contains(t, string(data), `"edges":3`)
}

func TestMissingConfigFileFallsBackToDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.json")

	_, err := execute(t, "--config", missing, "version")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), config.Get())
}
