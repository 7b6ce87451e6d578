package packager

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/oshokin/rpmstamp/internal/config"
	"github.com/oshokin/rpmstamp/internal/domain/release"
	"github.com/oshokin/rpmstamp/internal/logger"
	"github.com/oshokin/rpmstamp/internal/service/common"
)

// Source produces the tracked tree as a tar stream with every entry under prefix/.
type Source interface {
	Archive(ctx context.Context, prefix string, w io.Writer) error
}

// Options contains inputs for the packaging pipeline.
type Options struct {
	// Config is the loaded project configuration.
	Config *config.Config
	// Version is the resolved version, passed explicitly rather than read back from the generated file.
	Version release.Version
}

// packager assembles the source tarball and drives the build tool.
// It is unexported; callers use Run.
type packager struct {
	// cfg holds package naming and tool settings.
	cfg *config.Config
	// source archives the tracked tree.
	source Source
	// builder runs the package build tool.
	builder Builder
	// workDir is where the archive is created and relative paths are resolved.
	workDir string
	// processName identifies other rpmstamp processes that may own an existing archive.
	processName string
}

var (
	errConfigRequired      = errors.New("configuration is required")
	errVersionRequired     = errors.New("resolved version is required")
	errPackagingInProgress = errors.New("another packaging run owns the source archive")
)

const (
	// archivePermissions is used for the intermediate tarball.
	archivePermissions = 0o644
	// outputDirPermissions is used when creating the package output directory.
	outputDirPermissions = 0o755
	// archiveOwner is recorded for injected entries, matching what git archive emits.
	archiveOwner = "root"
)

// Run executes the packaging workflow.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "packager")

	if opts == nil || opts.Config == nil {
		return errConfigRequired
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("working directory: %w", err)
	}

	cfg := opts.Config
	pkg := newPackager(
		cfg,
		common.NewGit(common.WithCallTimeout(cfg.GitTimeout)),
		newRPMBuilder(cfg.BuildTool, os.Stdout, os.Stderr),
		workDir,
	)

	if err = pkg.Run(ctx, opts.Version); err != nil {
		return err
	}

	logger.Info(ctx, "Packaging completed successfully")

	return nil
}

func newPackager(cfg *config.Config, source Source, builder Builder, workDir string) *packager {
	return &packager{
		cfg:         cfg,
		source:      source,
		builder:     builder,
		workDir:     workDir,
		processName: currentProcessName(),
	}
}

// Run archives, injects the generated file, builds, and always removes the archive it created.
func (p *packager) Run(ctx context.Context, version release.Version) error {
	if version.Long == "" {
		return errVersionRequired
	}

	if actor, err := common.DetectActor(); err == nil {
		ctx = logger.WithKV(ctx, "actor", actor.String())
	}

	archive := filepath.Join(p.workDir, p.cfg.SourceArchive())

	if err := p.ensureNoConcurrentRun(ctx, archive); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Creating source archive", "archive", archive, "prefix", p.cfg.PackageName)

	created, err := p.createArchive(ctx, archive)

	// Best-effort cleanup on every exit path, but never of an archive another run created.
	if created {
		defer p.removeArchive(ctx, archive)
	}

	if err != nil {
		return fmt.Errorf("create source archive: %w", err)
	}

	request, err := p.buildRequest(version)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Building package",
		"tool", p.cfg.BuildTool,
		"spec", request.SpecFile,
		"major_version", request.Major,
		"minor_version", request.Minor,
	)

	if err = p.builder.Build(ctx, request); err != nil {
		return fmt.Errorf("build package: %w", err)
	}

	logger.InfoKV(ctx, "Package built", "output_dir", request.OutputDir)

	return nil
}

// buildRequest resolves absolute paths for the build tool and prepares the output directory.
func (p *packager) buildRequest(version release.Version) (*BuildRequest, error) {
	outputDir := p.absolute(p.cfg.OutputDir)

	if err := os.MkdirAll(outputDir, outputDirPermissions); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	return &BuildRequest{
		SpecFile:  p.cfg.SpecFile,
		Archive:   filepath.Join(p.workDir, p.cfg.SourceArchive()),
		SourceDir: p.workDir,
		OutputDir: outputDir,
		WorkDir:   p.workDir,
		Major:     version.Major(),
		Minor:     version.Minor(),
	}, nil
}

// createArchive writes the gzip-compressed tarball. created reports whether the file now exists
// because of this call, so the caller knows whether it owns the cleanup.
func (p *packager) createArchive(ctx context.Context, archive string) (created bool, err error) {
	file, err := os.OpenFile(filepath.Clean(archive), os.O_CREATE|os.O_EXCL|os.O_WRONLY, archivePermissions)
	if err != nil {
		return false, err
	}

	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	compressor := gzip.NewWriter(file)
	writer := tar.NewWriter(compressor)
	injected := path.Join(p.cfg.PackageName, filepath.ToSlash(p.cfg.GeneratedFile))

	if err = p.copyTrackedTree(ctx, writer, injected); err != nil {
		return true, err
	}

	if err = p.injectFile(writer, injected, p.absolute(p.cfg.GeneratedFile)); err != nil {
		return true, fmt.Errorf("inject %s: %w", p.cfg.GeneratedFile, err)
	}

	if err = writer.Close(); err != nil {
		return true, fmt.Errorf("finish tar stream: %w", err)
	}

	if err = compressor.Close(); err != nil {
		return true, fmt.Errorf("finish gzip stream: %w", err)
	}

	return true, nil
}

// copyTrackedTree streams the source archive into writer, dropping any tracked copy of the injected file.
func (p *packager) copyTrackedTree(ctx context.Context, writer *tar.Writer, injected string) error {
	reader, pipeWriter := io.Pipe()
	done := make(chan error, 1)

	go func() {
		archiveErr := p.source.Archive(ctx, p.cfg.PackageName, pipeWriter)
		_ = pipeWriter.CloseWithError(archiveErr)
		done <- archiveErr
	}()

	copyErr := copyEntries(tar.NewReader(reader), writer, injected)
	if copyErr == nil {
		// git archive pads past the end marker to a full record; the producer must finish writing.
		_, copyErr = io.Copy(io.Discard, reader)
	}

	if copyErr != nil {
		// Unblocks the producer when copying stopped early; its closed-pipe error is secondary.
		_ = reader.CloseWithError(copyErr)
		<-done

		return copyErr
	}

	return <-done
}

func copyEntries(reader *tar.Reader, writer *tar.Writer, skip string) error {
	for {
		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("read tracked tree: %w", err)
		}

		if header.Name == skip {
			continue
		}

		if err = writer.WriteHeader(header); err != nil {
			return fmt.Errorf("write %s: %w", header.Name, err)
		}

		//nolint:gosec // The stream comes from our own repository.
		if _, err = io.Copy(writer, reader); err != nil {
			return fmt.Errorf("copy %s: %w", header.Name, err)
		}
	}
}

// injectFile appends an untracked file to the archive under name.
func (p *packager) injectFile(writer *tar.Writer, name, filename string) error {
	info, err := os.Stat(filename)
	if err != nil {
		return err
	}

	contents, err := os.ReadFile(filepath.Clean(filename))
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}

	header.Name = name
	header.Size = int64(len(contents))
	header.Uid, header.Gid = 0, 0
	header.Uname, header.Gname = archiveOwner, archiveOwner

	if err = writer.WriteHeader(header); err != nil {
		return err
	}

	_, err = writer.Write(contents)

	return err
}

// removeArchive deletes the intermediate archive; failures are only logged.
func (p *packager) removeArchive(ctx context.Context, archive string) {
	if err := os.Remove(archive); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnKV(ctx, "Unable to remove source archive", "archive", archive, "error", err)

		return
	}

	logger.DebugKV(ctx, "Source archive removed", "archive", archive)
}

func (p *packager) absolute(name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}

	return filepath.Join(p.workDir, name)
}
