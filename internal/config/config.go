package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	goversion "github.com/hashicorp/go-version"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config describes the project being versioned and packaged.
type Config struct {
	// PackageName is the archive prefix directory and the tarball name stem.
	PackageName string `yaml:"package_name"`
	// ShortVersion is the hand-maintained major.minor.patch version.
	ShortVersion string `yaml:"short_version"`
	// GeneratedFile is the untracked file receiving the long version, relative to the working directory.
	GeneratedFile string `yaml:"generated_file"`
	// SourceDir is the package source directory handed to the lint and type-check steps.
	SourceDir string `yaml:"source_dir"`
	// SpecFile is the RPM spec passed to the build tool.
	SpecFile string `yaml:"spec_file"`
	// OutputDir receives the built packages and is removed by clean.
	OutputDir string `yaml:"output_dir"`
	// Interpreter substitutes {interpreter} in test steps. The PYTHON environment variable overrides it.
	Interpreter string `yaml:"interpreter"`
	// BuildTool is the external package build tool.
	BuildTool string `yaml:"build_tool"`
	// GitTimeout bounds every git query.
	GitTimeout time.Duration `yaml:"git_timeout"`
	// TestSteps run in order by the test command.
	TestSteps []Step `yaml:"test_steps"`
}

// Step is a single external command of the test target.
type Step struct {
	// Name identifies the step in logs.
	Name string `yaml:"name"`
	// Command is the program followed by its arguments.
	Command []string `yaml:"command"`
}

const (
	// DefaultConfigFilename is the configuration looked up when --config is not given.
	DefaultConfigFilename = "rpmstamp.yaml"

	// DefaultEnvFilename is loaded into the environment before the configuration.
	DefaultEnvFilename = ".env"

	// InterpreterEnv overrides Config.Interpreter.
	InterpreterEnv = "PYTHON"

	// InterpreterPlaceholder is replaced with Config.Interpreter in step arguments.
	InterpreterPlaceholder = "{interpreter}"

	// DefaultGitTimeout bounds git queries.
	DefaultGitTimeout = 10 * time.Second

	// DefaultFilePermissions is used for the configuration and generated files.
	DefaultFilePermissions = 0o644

	// Fallbacks shared by Default and ApplyDefaults.
	defaultOutputDir   = "rpms"
	defaultInterpreter = "python3"
	defaultBuildTool   = "rpmbuild"

	// sourceArchiveSuffix is appended to PackageName to name the intermediate tarball.
	sourceArchiveSuffix = "-rpm-src.tar.gz"
)

var (
	errConfigIsNotSet       = errors.New("configuration is not set")
	errPackageNameRequired  = errors.New("package name must be provided")
	errPackageNameInvalid   = errors.New("package name must be a single path element")
	errShortVersionRequired = errors.New("short version must be provided")
	errShortVersionSuffix   = errors.New("short version must not carry pre-release or metadata")
	errShortVersionPrefix   = errors.New("short version must not start with v")
	errGeneratedFileInvalid = errors.New("generated file must be a relative path inside the working directory")
	errOutputDirInvalid     = errors.New("output directory must be a relative path below the working directory")
	errStepInvalid          = errors.New("test step must have a name and a command")
)

// Default returns the configuration of the reference project.
func Default() *Config {
	return &Config{
		PackageName:   "aiven-client",
		ShortVersion:  "0.1.0",
		GeneratedFile: "aiven/client/version.py",
		SourceDir:     "aiven",
		SpecFile:      "aiven-client.spec",
		OutputDir:     defaultOutputDir,
		Interpreter:   defaultInterpreter,
		BuildTool:     defaultBuildTool,
		GitTimeout:    DefaultGitTimeout,
		TestSteps:     DefaultTestSteps("aiven"),
	}
}

// DefaultTestSteps returns lint, type-check and unit test steps for the source directory.
func DefaultTestSteps(sourceDir string) []Step {
	return []Step{
		{Name: "lint", Command: []string{InterpreterPlaceholder, "-m", "pylint", "--rcfile", ".pylintrc", sourceDir}},
		{Name: "typecheck", Command: []string{InterpreterPlaceholder, "-m", "mypy", sourceDir}},
		{Name: "unittest", Command: []string{InterpreterPlaceholder, "-m", "pytest", "-vv", "tests/"}},
	}
}

// Load reads configuration from the provided path, applies environment overrides and validates it.
// A missing file at the default path yields Default().
func Load(filename string) (*Config, error) {
	explicit := filename != ""
	if !explicit {
		filename = DefaultConfigFilename
	}

	// The real environment wins over .env values.
	if err := godotenv.Load(DefaultEnvFilename); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", DefaultEnvFilename, err)
	}

	cfg := Default()

	contents, err := os.ReadFile(filepath.Clean(filename))

	switch {
	case err == nil:
		if err = yaml.Unmarshal(contents, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// Defaults.
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if interpreter := strings.TrimSpace(os.Getenv(InterpreterEnv)); interpreter != "" {
		cfg.Interpreter = interpreter
	}

	ApplyDefaults(cfg)

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the provided path.
func Save(filename string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if filename == "" {
		filename = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(filename), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// ApplyDefaults fills optional fields that were left empty. Load calls it before Validate.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.SourceDir == "" {
		cfg.SourceDir = path.Dir(filepath.ToSlash(cfg.GeneratedFile))
	}

	if cfg.SpecFile == "" {
		cfg.SpecFile = cfg.PackageName + ".spec"
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = defaultOutputDir
	}

	if cfg.Interpreter == "" {
		cfg.Interpreter = defaultInterpreter
	}

	if cfg.BuildTool == "" {
		cfg.BuildTool = defaultBuildTool
	}

	if cfg.GitTimeout <= 0 {
		cfg.GitTimeout = DefaultGitTimeout
	}
}

// Validate checks the configuration without modifying it.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.PackageName == "" {
		return errPackageNameRequired
	}

	if strings.ContainsAny(cfg.PackageName, `/\`) || cfg.PackageName == "." || cfg.PackageName == ".." {
		return fmt.Errorf("%q: %w", cfg.PackageName, errPackageNameInvalid)
	}

	if err := validateShortVersion(cfg.ShortVersion); err != nil {
		return err
	}

	if !isInsideWorkDir(cfg.GeneratedFile) {
		return fmt.Errorf("%q: %w", cfg.GeneratedFile, errGeneratedFileInvalid)
	}

	// clean removes this directory recursively.
	if !isInsideWorkDir(cfg.OutputDir) {
		return fmt.Errorf("%q: %w", cfg.OutputDir, errOutputDirInvalid)
	}

	for _, step := range cfg.TestSteps {
		if step.Name == "" || len(step.Command) == 0 || step.Command[0] == "" {
			return fmt.Errorf("step %q: %w", step.Name, errStepInvalid)
		}
	}

	return nil
}

// isInsideWorkDir reports whether name is a relative path strictly below the working directory.
func isInsideWorkDir(name string) bool {
	if name == "" || filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return false
	}

	slashed := filepath.ToSlash(name)
	if path.IsAbs(slashed) {
		return false
	}

	cleaned := path.Clean(slashed)

	return cleaned != "." && cleaned != ".." && !strings.HasPrefix(cleaned, "../")
}

// SourceArchive returns the name of the intermediate source tarball.
func (c *Config) SourceArchive() string {
	return c.PackageName + sourceArchiveSuffix
}

// ExpandStep returns the step command with the interpreter placeholder replaced.
func (c *Config) ExpandStep(step Step) []string {
	command := make([]string, len(step.Command))
	for i, arg := range step.Command {
		command[i] = strings.ReplaceAll(arg, InterpreterPlaceholder, c.Interpreter)
	}

	return command
}

// validateShortVersion accepts only plain numeric versions so the long version can be split on hyphens.
func validateShortVersion(short string) error {
	if short == "" {
		return errShortVersionRequired
	}

	parsed, err := goversion.NewVersion(short)
	if err != nil {
		return fmt.Errorf("invalid short version %q: %w", short, err)
	}

	if parsed.Prerelease() != "" || parsed.Metadata() != "" || strings.ContainsAny(short, "-+") {
		return fmt.Errorf("%q: %w", short, errShortVersionSuffix)
	}

	if strings.HasPrefix(short, "v") {
		return fmt.Errorf("%q: %w", short, errShortVersionPrefix)
	}

	return nil
}
