package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields, short version rules, path confinement and defaults.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Validate(nil), errConfigIsNotSet)

	// Missing package name.
	cfg := Default()
	cfg.PackageName = ""
	require.ErrorIs(t, Validate(cfg), errPackageNameRequired)

	// Package name with a separator.
	cfg = Default()
	cfg.PackageName = "aiven/client"
	require.ErrorIs(t, Validate(cfg), errPackageNameInvalid)

	// Short versions.
	for short, want := range map[string]error{
		"":            errShortVersionRequired,
		"0.9.0-beta1": errShortVersionSuffix,
		"1.2.3+build": errShortVersionSuffix,
		"v1.2.3":      errShortVersionPrefix,
	} {
		cfg = Default()
		cfg.ShortVersion = short
		require.ErrorIs(t, Validate(cfg), want, short)
	}

	cfg = Default()
	cfg.ShortVersion = "not-a-version"
	require.Error(t, Validate(cfg))

	// Generated file escaping the working directory.
	for _, generated := range []string{"", "/etc/version.py", "../version.py"} {
		cfg = Default()
		cfg.GeneratedFile = generated
		require.ErrorIs(t, Validate(cfg), errGeneratedFileInvalid, generated)
	}

	// Output directory that would make clean remove the working tree or more.
	for _, outputDir := range []string{"", ".", "./", "/", "..", "../..", "rpms/../..", "/tmp/rpms"} {
		cfg = Default()
		cfg.OutputDir = outputDir
		require.ErrorIs(t, Validate(cfg), errOutputDirInvalid, outputDir)
	}

	for _, outputDir := range []string{"rpms", "build/rpms", "./out", "..rpms"} {
		cfg = Default()
		cfg.OutputDir = outputDir
		require.NoError(t, Validate(cfg), outputDir)
	}

	// Broken step.
	cfg = Default()
	cfg.TestSteps = []Step{{Name: "lint"}}
	require.ErrorIs(t, Validate(cfg), errStepInvalid)

	// Validate never fills anything in.
	cfg = &Config{
		PackageName:   "demo",
		ShortVersion:  "0.9.0",
		GeneratedFile: "demo/version.py",
	}
	require.ErrorIs(t, Validate(cfg), errOutputDirInvalid)
	require.Empty(t, cfg.OutputDir)
	require.Empty(t, cfg.SpecFile)

	// Defaults are filled in.
	ApplyDefaults(cfg)
	require.NoError(t, Validate(cfg))
	require.Equal(t, "demo", cfg.SourceDir)
	require.Equal(t, "demo.spec", cfg.SpecFile)
	require.Equal(t, "rpms", cfg.OutputDir)
	require.Equal(t, "python3", cfg.Interpreter)
	require.Equal(t, "rpmbuild", cfg.BuildTool)
	require.Equal(t, DefaultGitTimeout, cfg.GitTimeout)
	require.Equal(t, "demo-rpm-src.tar.gz", cfg.SourceArchive())
}

// TestExpandStep ensures the interpreter placeholder is substituted everywhere.
func TestExpandStep(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Interpreter = "python3.12"

	got := cfg.ExpandStep(Step{
		Name:    "lint",
		Command: []string{InterpreterPlaceholder, "-m", "pylint", "--python=" + InterpreterPlaceholder},
	})
	require.Equal(t, []string{"python3.12", "-m", "pylint", "--python=python3.12"}, got)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv(InterpreterEnv, "")

	path := filepath.Join(t.TempDir(), "rpmstamp.yaml")

	cfg := Default()
	cfg.PackageName = "demo"
	cfg.ShortVersion = "2.4.1"
	cfg.GitTimeout = 3 * time.Second
	cfg.TestSteps = []Step{{Name: "unittest", Command: []string{"go", "test", "./..."}}}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

// TestLoadDefaults verifies a missing default file yields defaults while a missing explicit file fails.
func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv(InterpreterEnv, "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	// A configured output directory outside the working tree is rejected on load.
	require.NoError(t, os.WriteFile("unsafe.yaml", []byte("output_dir: ..\n"), 0o600))

	_, err = Load("unsafe.yaml")
	require.ErrorIs(t, err, errOutputDirInvalid)

	_, err = Load("missing.yaml")
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestLoadInterpreterOverrides checks .env loading and that the real environment wins over it.
func TestLoadInterpreterOverrides(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultEnvFilename), []byte("PYTHON=python3.11\n"), 0o600))

	// Unset so the .env value applies; t.Setenv restores the original afterwards.
	t.Setenv(InterpreterEnv, "")
	require.NoError(t, os.Unsetenv(InterpreterEnv))

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "python3.11", cfg.Interpreter)

	t.Setenv(InterpreterEnv, "pypy3")

	cfg, err = Load("")
	require.NoError(t, err)
	require.Equal(t, "pypy3", cfg.Interpreter)
}

// chdir changes the working directory for the duration of the test (Go 1.21 stand-in for t.Chdir).
func chdir(t *testing.T, dir string) {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
