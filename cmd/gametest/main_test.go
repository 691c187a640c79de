package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/comalice/gametestx"
	"github.com/comalice/gametestx/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDefaultSuite(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "out", "report.json")
	var stdout, stderr bytes.Buffer

	code := run([]string{"-json", jsonPath}, &stdout, &stderr)
	require.Equal(t, gametestx.ExitSuccess, code, stderr.String())
	assert.Contains(t, stdout.String(), "TIMED_OUT (optional)")
	assert.Contains(t, stdout.String(), "7 passed, 0 failed, 1 timed out, 2 skipped")

	rep, err := report.Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 7, rep.Passed)
	assert.Equal(t, gametestx.ExitSuccess, rep.ExitCode)
}

func TestRunWithFilterAndYAML(t *testing.T) {
	yamlPath := filepath.Join(t.TempDir(), "report.yaml")
	var stdout, stderr bytes.Buffer

	code := run([]string{"-filter", `suite == "mobs" && required`, "-yaml", yamlPath}, &stdout, &stderr)
	require.Equal(t, gametestx.ExitSuccess, code, stderr.String())

	rep, err := report.Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Passed)
	assert.Equal(t, 8, rep.Skipped)
}

func TestListSelectedTests(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-list", "-tags", "suite:redstone"}, &stdout, &stderr)
	require.Equal(t, gametestx.ExitSuccess, code)
	assert.Equal(t,
		"redstone:lamp_lights\tsuite:default,suite:redstone\n"+
			"redstone:observer_pulse\tsuite:default,suite:redstone\n",
		stdout.String())
}

func TestConfigErrorsExitWithUsage(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("run:\n  max_concurrent: -1\n"), 0o644))

	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-nope"}},
		{"missing config", []string{"-config", filepath.Join(dir, "missing.yaml")}},
		{"invalid config", []string{"-config", bad}},
		{"invalid filter", []string{"-filter", "suite +"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, exitUsage, run(tt.args, &stdout, &stderr))
		})
	}
}

func TestMalformedEnvExitsWithUsage(t *testing.T) {
	t.Setenv("GAMETEST_MAX_CONCURRENT", "abc")
	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitUsage, run(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "GAMETEST_MAX_CONCURRENT")
}
