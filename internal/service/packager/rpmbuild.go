package packager

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// Builder runs the external package build tool.
type Builder interface {
	Build(ctx context.Context, request *BuildRequest) error
}

// BuildRequest carries everything the build tool needs.
type BuildRequest struct {
	// SpecFile is the package spec, relative to WorkDir.
	SpecFile string
	// Archive is the absolute path of the source tarball.
	Archive string
	// SourceDir is where the build tool looks for the tarball.
	SourceDir string
	// OutputDir receives the build tree and the packages.
	OutputDir string
	// WorkDir is the directory the tool runs in.
	WorkDir string
	// Major is the major version define.
	Major string
	// Minor is the minor version define.
	Minor string
}

// rpmBuilder invokes rpmbuild (or a compatible tool) with the version defines.
type rpmBuilder struct {
	// tool is the executable to run.
	tool string
	// stdout and stderr receive the tool output unchanged.
	stdout io.Writer
	stderr io.Writer
}

func newRPMBuilder(tool string, stdout, stderr io.Writer) *rpmBuilder {
	return &rpmBuilder{
		tool:   tool,
		stdout: stdout,
		stderr: stderr,
	}
}

// Build runs the tool. A non-zero exit keeps its *exec.ExitError in the chain.
func (b *rpmBuilder) Build(ctx context.Context, request *BuildRequest) error {
	//nolint:gosec // The tool and its arguments come from the project configuration.
	cmd := exec.CommandContext(ctx, b.tool, buildArguments(request)...)
	cmd.Dir = request.WorkDir
	cmd.Stdout = b.stdout
	cmd.Stderr = b.stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", b.tool, err)
	}

	return nil
}

// buildArguments renders the rpmbuild command line.
func buildArguments(request *BuildRequest) []string {
	return []string{
		"-bb", request.SpecFile,
		"--define", "_topdir " + request.OutputDir,
		"--define", "_sourcedir " + request.SourceDir,
		"--define", "major_version " + request.Major,
		"--define", "minor_version " + request.Minor,
	}
}
