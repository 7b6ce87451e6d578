package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/rpmstamp/internal/config"
	"github.com/oshokin/rpmstamp/internal/domain/release"
	"github.com/oshokin/rpmstamp/internal/logger"
	"github.com/oshokin/rpmstamp/internal/repository/versionfile"
	"github.com/oshokin/rpmstamp/internal/service/common"
)

// Describer queries version control history.
type Describer interface {
	Describe(ctx context.Context) (string, error)
	DescribeAlways(ctx context.Context) (string, error)
	IndexPath(ctx context.Context) (string, error)
}

// Options controls a resolver run.
type Options struct {
	// Config is the loaded project configuration.
	Config *config.Config
	// Force regenerates the file even when the git index did not change.
	Force bool
}

// Result describes what a run did.
type Result struct {
	// Version is the resolved version. Zero when UpToDate is set.
	Version release.Version
	// UpToDate means the generated file was current and history was not queried.
	UpToDate bool
	// Written means the generated file content changed.
	Written bool
}

var errConfigRequired = errors.New("configuration is required")

// resolver keeps the generated file in sync with git history.
type resolver struct {
	// describer answers history queries.
	describer Describer
	// repo persists the generated file.
	repo versionfile.Repository
	// short is the hand-maintained version.
	short string
	// generatedFile is only used in logs.
	generatedFile string
}

// Run ensures the generated version file is current and returns the resolved version.
func Run(ctx context.Context, opts *Options) (*Result, error) {
	ctx = logger.WithName(ctx, "resolver")

	if opts == nil || opts.Config == nil {
		return nil, errConfigRequired
	}

	cfg := opts.Config
	git := common.NewGit(common.WithCallTimeout(cfg.GitTimeout))

	r := newResolver(git, versionfile.NewFileRepository(cfg.GeneratedFile), cfg.ShortVersion, cfg.GeneratedFile)

	return r.Run(ctx, opts.Force)
}

func newResolver(describer Describer, repo versionfile.Repository, short, generatedFile string) *resolver {
	return &resolver{
		describer:     describer,
		repo:          repo,
		short:         short,
		generatedFile: generatedFile,
	}
}

// Run regenerates the file when stale or forced.
func (r *resolver) Run(ctx context.Context, force bool) (*Result, error) {
	index := r.indexPath(ctx)

	if !force && !r.repo.IsStale(ctx, index) {
		logger.InfoKV(ctx, "Generated file is up to date", "path", r.generatedFile)

		return &Result{UpToDate: true}, nil
	}

	version := Resolve(ctx, r.describer, r.short)

	written, err := r.repo.Save(ctx, version)
	if err != nil {
		return nil, fmt.Errorf("save generated file: %w", err)
	}

	// Unchanged content keeps its bytes but must still count as generated after the index changed.
	if err = r.repo.Touch(ctx, index); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Version resolved",
		"long_version", version.Long,
		"outcome", version.Outcome.String(),
		"path", r.generatedFile,
		"written", written,
	)

	return &Result{
		Version: version,
		Written: written,
	}, nil
}

// indexPath locates the git index. An empty result means unknown, which IsStale treats as stale.
func (r *resolver) indexPath(ctx context.Context) string {
	index, err := r.describer.IndexPath(ctx)
	if err != nil {
		logger.DebugKV(ctx, "Git index unavailable, regenerating", "error", err)

		return ""
	}

	return index
}

// Resolve derives the version of HEAD. It never fails: history problems produce a Fallback.
func Resolve(ctx context.Context, describer Describer, short string) release.Version {
	output, err := describer.Describe(ctx)
	if err != nil {
		logger.DebugKV(ctx, "History cannot describe HEAD", "error", err)

		return release.NewFallback(short, describeAlways(ctx, describer))
	}

	description, err := release.ParseDescription(output)
	if err != nil {
		logger.WarnKV(ctx, "Unexpected describe output, falling back", "output", output, "error", err)

		return release.NewFallback(short, describeAlways(ctx, describer))
	}

	if !description.MatchesShort(short) {
		logger.WarnKV(ctx, "Nearest tag does not match the short version, falling back",
			"tag", description.Tag,
			"short_version", short,
		)

		return release.NewFallback(short, description.Hash)
	}

	return release.NewDescribed(short, description.Distance, description.Hash)
}

// describeAlways returns the best-effort abbreviated hash, or an empty string.
func describeAlways(ctx context.Context, describer Describer) string {
	hash, err := describer.DescribeAlways(ctx)
	if err != nil {
		logger.DebugKV(ctx, "Abbreviated hash unavailable", "error", err)

		return ""
	}

	return hash
}
