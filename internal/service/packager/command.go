package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/kicksaw-consulting/integration-deployer/internal/artifact"
	"github.com/kicksaw-consulting/integration-deployer/internal/config"
	"github.com/kicksaw-consulting/integration-deployer/internal/logger"
	"github.com/kicksaw-consulting/integration-deployer/internal/service/common"
)

const (
	// CodeArchiveName is the handed-off code archive filename.
	CodeArchiveName = "code.zip"
	// DependencyArchiveName is the handed-off dependency archive filename.
	DependencyArchiveName = "dependencies.zip"

	// packagerProcessName is the executable name scanned for by the run guard.
	packagerProcessName = "integration-packager"

	// requirementsFilename is the exported pinned requirements list inside scratch.
	requirementsFilename = "requirements.txt"
)

// errPackagerRunning indicates another packaging run owns this working directory.
var errPackagerRunning = errors.New("another packaging run is in progress")

// Result holds the paths of the finished archives in the output directory.
type Result struct {
	// CodeArchivePath is the filtered application source archive.
	CodeArchivePath string
	// DependencyArchivePath is the installed third-party dependency archive.
	DependencyArchivePath string
	// Requirements is the pinned dependency list the archive was built from.
	Requirements []artifact.Requirement
}

// pipeline runs the packaging steps against one scratch directory.
// It is unexported; callers use Run, which encapsulates setup and the run guard.
type pipeline struct {
	// cfg holds the validated project settings.
	cfg *config.Config
	// runner invokes the exporter and installer CLIs.
	runner *common.Runner
	// scratch is the transient isolated working directory.
	scratch string
}

// Run executes the packaging workflow: stage, filter, archive code, export and
// install pinned dependencies, strip bytecode, archive dependencies, hand off.
// The scratch directory is released on every exit path, success or failure.
func Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	ctx = logger.WithName(ctx, "integration-packager")

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	if common.IsPackagerRunningNow(ctx, packagerProcessName) {
		return nil, errPackagerRunning
	}

	if err := common.WriteMarker(); err != nil {
		return nil, fmt.Errorf("write packaging marker: %w", err)
	}

	defer func() {
		_ = common.RemoveMarker()
	}()

	scratch, err := os.MkdirTemp("", "integration-packager-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}

	defer func() {
		_ = os.RemoveAll(scratch)
	}()

	p := &pipeline{
		cfg:     cfg,
		runner:  &common.Runner{Timeout: cfg.Timeout},
		scratch: scratch,
	}

	result, err := p.run(ctx)
	if err != nil {
		return nil, fmt.Errorf("packaging failed: %w", err)
	}

	logger.InfoKV(ctx, "Packaging completed",
		"code_archive", result.CodeArchivePath,
		"dependency_archive", result.DependencyArchivePath)

	return result, nil
}

// run performs the pipeline steps in order. Each step is synchronous and
// must complete before the next begins; any failure aborts the whole run.
func (p *pipeline) run(ctx context.Context) (*Result, error) {
	codeArchive, err := p.buildCodeArchive(ctx)
	if err != nil {
		return nil, err
	}

	requirements, err := p.exportRequirements(ctx)
	if err != nil {
		return nil, err
	}

	dependencyArchive, err := p.buildDependencyArchive(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{
		CodeArchivePath:       filepath.Join(p.cfg.OutputDir, CodeArchiveName),
		DependencyArchivePath: filepath.Join(p.cfg.OutputDir, DependencyArchiveName),
		Requirements:          requirements,
	}

	// Handoff happens last so a failed run never leaves a partial archive
	// in the output directory.
	if err = artifact.MoveFile(codeArchive, result.CodeArchivePath); err != nil {
		return nil, err
	}

	if err = artifact.MoveFile(dependencyArchive, result.DependencyArchivePath); err != nil {
		return nil, err
	}

	return result, nil
}

// buildCodeArchive stages the source directories into scratch, filters the
// copy down to code files and compresses it.
func (p *pipeline) buildCodeArchive(ctx context.Context) (string, error) {
	stageRoot := filepath.Join(p.scratch, "code")

	logger.InfoKV(ctx, "Staging source directories", "dirs", p.cfg.SourceDirs)

	if err := artifact.Stage(p.cfg.SourceDirs, stageRoot); err != nil {
		return "", err
	}

	if err := artifact.Filter(stageRoot, p.cfg.CodeFilePattern); err != nil {
		return "", err
	}

	archivePath := filepath.Join(p.scratch, CodeArchiveName)

	size, err := artifact.WriteArchive(stageRoot, archivePath)
	if err != nil {
		return "", err
	}

	logger.InfoKV(ctx, "Code archive written", "size", humanize.Bytes(uint64(size)))

	return archivePath, nil
}

// exportRequirements asks the exporter CLI for a flat, fully-pinned,
// hash-free requirements list and validates it.
func (p *pipeline) exportRequirements(ctx context.Context) ([]artifact.Requirement, error) {
	requirementsPath := filepath.Join(p.scratch, requirementsFilename)

	logger.InfoKV(ctx, "Exporting dependency manifest", "manifest", p.cfg.ManifestPath)

	err := p.runner.Run(ctx, p.cfg.ExporterCommand,
		"export",
		"-f", "requirements.txt",
		"--without-hashes",
		"-o", requirementsPath)
	if err != nil {
		return nil, fmt.Errorf("export manifest: %w", err)
	}

	contents, err := os.ReadFile(requirementsPath) //nolint:gosec // Path is inside our own scratch dir.
	if err != nil {
		return nil, fmt.Errorf("read exported requirements: %w", err)
	}

	requirements, err := artifact.ParseRequirements(contents)
	if err != nil {
		return nil, fmt.Errorf("validate exported requirements: %w", err)
	}

	logger.InfoKV(ctx, "Requirements pinned", "count", len(requirements))

	return requirements, nil
}

// buildDependencyArchive installs the pinned requirements into the runtime
// import prefix, strips bytecode caches and compresses the tree.
func (p *pipeline) buildDependencyArchive(ctx context.Context) (string, error) {
	depsRoot := filepath.Join(p.scratch, "deps")
	target := filepath.Join(depsRoot, filepath.FromSlash(p.cfg.ImportPrefix()))

	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("create install target: %w", err)
	}

	logger.InfoKV(ctx, "Installing dependencies", "target", p.cfg.ImportPrefix())

	err := p.runner.Run(ctx, p.cfg.InstallerCommand,
		"install",
		"-r", filepath.Join(p.scratch, requirementsFilename),
		"--target", target)
	if err != nil {
		return "", fmt.Errorf("install dependencies: %w", err)
	}

	// Bytecode caches are non-deterministic and platform-specific;
	// they must not leak into the reproducible artifact.
	if err = artifact.StripBytecode(depsRoot); err != nil {
		return "", err
	}

	archivePath := filepath.Join(p.scratch, DependencyArchiveName)

	size, err := artifact.WriteArchive(depsRoot, archivePath)
	if err != nil {
		return "", err
	}

	logger.InfoKV(ctx, "Dependency archive written", "size", humanize.Bytes(uint64(size)))

	return archivePath, nil
}
