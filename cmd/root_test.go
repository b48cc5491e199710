package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"scaffold.dev/pkg/scaffold/internal/domain"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// runRoot executes a fresh root command in a scratch working directory.
func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	t.Chdir(t.TempDir())

	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func greeterTemplate(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, ".scaffold.json"), `{
  "name": "greeter",
  "questions": [
    {"name": "project.name", "type": "Identifier", "pretty": "Project name"},
    {"name": "greeting", "type": "Text", "default": "Hello"}
  ]
}`)
	writeTestFile(t, filepath.Join(dir, "{{project.name}}.txt.hbs"), "{{greeting}}, {{to_upper_case project.name}}!\n")
	writeTestFile(t, filepath.Join(dir, "LICENSE"), "MIT\n")

	return dir
}

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, "scaffold REPOSITORY [TARGET]", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.Equal(t, rootLongDescription, cmd.Long)

	for _, name := range []string{
		branchFlagName, dirtyFlagName, templateFlagName, noHistoryFlagName, noInitFlagName,
		ignoreChecksFlagName, dryRunFlagName, answersFlagName, defaultsFlagName, parallelismFlagName,
	} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}

	assert.NotNil(t, cmd.PersistentFlags().Lookup(verboseFlagName))
}

func TestRootCmd_RequiresRepository(t *testing.T) {
	_, err := runRoot(t)
	assert.Error(t, err)
}

func TestRootCmd_ScaffoldWithAnswersFile(t *testing.T) {
	template := greeterTemplate(t)
	answers := filepath.Join(t.TempDir(), "answers.yaml")
	writeTestFile(t, answers, "project.name: demo\n")
	target := filepath.Join(t.TempDir(), "out")

	out, err := runRoot(t, template, target, "--answers", answers, "--defaults", "--no-history", "--no-init", "-p", "2")
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(target, "demo.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Hello, DEMO!\n", string(content))

	license, err := os.ReadFile(filepath.Join(target, "LICENSE"))
	require.NoError(t, err)
	assert.Equal(t, "MIT\n", string(license))

	assert.Contains(t, out, "Rendered 1 template file(s)")
	assert.Contains(t, out, "demo.txt")
}

func TestRootCmd_VerbosePrintsContext(t *testing.T) {
	template := greeterTemplate(t)
	answers := filepath.Join(t.TempDir(), "answers.yaml")
	writeTestFile(t, answers, "project:\n  name: demo\ngreeting: Hi\n")
	target := filepath.Join(t.TempDir(), "out")

	out, err := runRoot(t, template, target, "--answers", answers, "--no-history", "--no-init", "--verbose")
	require.NoError(t, err)

	assert.Contains(t, out, `"greeting"`)
	assert.Contains(t, out, `"Hi"`)
	assert.Contains(t, out, `"greeter"`)
}

func TestRootCmd_Conflicts(t *testing.T) {
	template := t.TempDir()
	writeTestFile(t, filepath.Join(template, "report.txt"), "plain\n")
	writeTestFile(t, filepath.Join(template, "report.txt.hbs"), "{{__template__.file.targetName}}\n")
	target := filepath.Join(t.TempDir(), "out")
	t.Setenv("TMPDIR", t.TempDir())

	out, err := runRoot(t, template, target, "--no-history", "--no-init")
	require.ErrorIs(t, err, domain.ErrConflicts)
	assert.Equal(t, exitConflicts, exitCode(err))

	assert.Contains(t, out, "Conflicts (1):")
	assert.FileExists(t, filepath.Join(target, "report (1).txt"))
}

func TestRootCmd_DryRun(t *testing.T) {
	template := greeterTemplate(t)
	answers := filepath.Join(t.TempDir(), "answers.yaml")
	writeTestFile(t, answers, "project.name: demo\ngreeting: Hey\n")
	target := filepath.Join(t.TempDir(), "out")

	out, err := runRoot(t, template, target, "--answers", answers, "--dry-run")
	require.NoError(t, err)

	entries, err := os.ReadDir(target)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Contains(t, out, "Would render 1 template file(s)")
}

func TestRootCmd_InvalidAnswers(t *testing.T) {
	template := greeterTemplate(t)
	answers := filepath.Join(t.TempDir(), "answers.yaml")
	writeTestFile(t, answers, "project.name: not an identifier\n")

	_, err := runRoot(t, template, filepath.Join(t.TempDir(), "out"), "--answers", answers)
	require.Error(t, err)
	assert.Equal(t, exitFailure, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitConflicts, exitCode(fmt.Errorf("run: %w", domain.ErrConflicts)))
	assert.Equal(t, exitFailure, exitCode(errors.New("boom")))
	assert.Equal(t, exitFailure, exitCode(domain.ErrInvalidTarget))
}
