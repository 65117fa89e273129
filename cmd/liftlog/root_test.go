package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/2beens/liftlog/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	musclesListAll = false
	timezone = "Local"

	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootHelp(t *testing.T) {
	out, err := run(t, "", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "muscles")
	assert.Contains(t, out, "week")
}

func TestMuscles(t *testing.T) {
	out, err := run(t, "", "muscles", "bench", "press")
	require.NoError(t, err)
	assert.Equal(t, "bench press: chest, triceps, front-deltoids\n", out)

	out, err = run(t, "", "muscles", "Juggling")
	require.NoError(t, err)
	assert.Equal(t, "Juggling: no known muscles\n", out)

	out, err = run(t, "", "muscles", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "Bench Press\n")

	_, err = run(t, "", "muscles")
	assert.Error(t, err)
}

func TestPlanValidate(t *testing.T) {
	dir := t.TempDir()

	okPlan := filepath.Join(dir, "ok.yaml")
	require.NoError(t, os.WriteFile(okPlan, []byte(`
id: p1
name: Upper/Lower
schedule:
  monday:
    dayTemplateId: upper
dayTemplates:
  - id: upper
    key: upper
    name: Upper
    focus: Upper
    exercises: []
`), 0o644))

	out, err := run(t, "", "plan", "validate", okPlan)
	require.NoError(t, err)
	assert.Equal(t, "plan \"Upper/Lower\" ok: 1 day templates, 1 scheduled days\n", out)

	brokenPlan := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(brokenPlan, []byte(`{
		"id": "p2",
		"name": "Broken",
		"schedule": {"tuesday": {"dayTemplateId": "missing"}},
		"dayTemplates": []
	}`), 0o644))

	out, err = run(t, "", "plan", "validate", brokenPlan)
	require.Error(t, err)
	assert.Contains(t, out, "warning: No template found for day \"tuesday\"")

	_, err = run(t, "", "plan", "validate", filepath.Join(dir, "nope.json"))
	assert.Error(t, err)
}

func TestPlanDemo(t *testing.T) {
	out, err := run(t, "", "plan", "demo")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Push/Pull/Legs Preview", lines[0])
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[1]), "monday"))
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[3]), "friday"))
}

func TestWeek(t *testing.T) {
	out, err := run(t, "", "week", "--tz", "UTC", "2025-01-08")
	require.NoError(t, err)
	assert.Equal(t, "Jan 5 - 11, 2025 (2025-01-05 .. 2025-01-11)\n", out)

	out, err = run(t, "", "week", "--tz", "UTC", "2025-12-31")
	require.NoError(t, err)
	assert.Equal(t, "Dec 28, 2025 - Jan 3, 2026 (2025-12-28 .. 2026-01-03)\n", out)

	_, err = run(t, "", "week", "--tz", "UTC", "2025-13-01")
	assert.Error(t, err)

	_, err = run(t, "", "week", "--tz", "Mars/Olympus")
	assert.Error(t, err)
}

func TestHashPassword(t *testing.T) {
	out, err := run(t, "s3cret\n", "hash-password")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.True(t, pkg.CheckPasswordHash("s3cret", hash))

	_, err = run(t, "\n", "hash-password")
	assert.Error(t, err)
}
