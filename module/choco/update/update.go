// Package update drives one Chocolatey package refresh end to end. A
// run downloads the configured installer variants and hashes them, then
// rewrites the checksum fields of the install script and brings the
// manifest version in line with the installer's ProductVersion.
package update

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nupdate/nupdate/module/choco/checksum"
	"github.com/nupdate/nupdate/module/choco/download"
	"github.com/nupdate/nupdate/module/choco/msi"
	"github.com/nupdate/nupdate/module/choco/nuspec"
	"github.com/nupdate/nupdate/module/choco/script"
	"github.com/nupdate/nupdate/module/choco/types"
	"github.com/nupdate/nupdate/util/common"
	"github.com/nupdate/nupdate/util/common/errors"
	"github.com/nupdate/nupdate/util/common/fileutil"
)

// DefaultPackageID is the manifest base name used when no package id is
// configured.
const DefaultPackageID = "unifiidentity"

// checksumFields maps each installer variant onto the install script
// field that carries its digest.
var checksumFields = map[types.Role]string{
	types.X32: "checksum",
	types.X64: "checksum64",
}

// Options configures a package update run.
type Options struct {
	ScriptPath  string
	URL         string
	URL64       string
	Algorithm   types.Algorithm
	DownloadDir string
	PackageID   string
	Attempts    int
	RetryDelay  time.Duration
	DryRun      bool
}

// Result collects what one update run produced.
type Result struct {
	Variants     []*types.Variant
	Version      string
	ScriptPath   string
	ManifestPath string
	Changed      []string
	Stats        []types.UpdateStat
}

// Service handles the package update process
type Service struct {
	opts    Options
	fetcher *download.Fetcher

	// readProperty extracts a property from a downloaded installer.
	readProperty func(path, property string) (string, error)
}

// NewService validates opts and creates a new update service.
func NewService(opts Options) (*Service, error) {
	if opts.ScriptPath == "" {
		return nil, errors.NewValidationError("script", "path to the install script is required")
	}
	if opts.URL == "" && opts.URL64 == "" {
		return nil, errors.NewValidationError("url", "at least one of url and url64 is required")
	}
	if opts.Algorithm == "" {
		opts.Algorithm = types.SHA256
	} else {
		algo, err := types.ParseAlgorithm(string(opts.Algorithm))
		if err != nil {
			return nil, err
		}
		opts.Algorithm = algo
	}
	if opts.PackageID == "" {
		opts.PackageID = DefaultPackageID
	}
	if opts.DownloadDir == "" {
		opts.DownloadDir = defaultDownloadDir(opts.ScriptPath)
	}

	return &Service{
		opts:         opts,
		fetcher:      download.NewFetcher(opts.DownloadDir, opts.Attempts, opts.RetryDelay),
		readProperty: msi.ReadProperty,
	}, nil
}

// Run executes the update process
func (s *Service) Run(ctx context.Context) (*Result, error) {
	logger := log.With().
		Str("package", s.opts.PackageID).
		Str("script", s.opts.ScriptPath).
		Logger()

	logger.Info().Msg("Starting package update")
	startTime := time.Now()

	res := &Result{
		ScriptPath:   s.opts.ScriptPath,
		ManifestPath: manifestPath(s.opts.ScriptPath, s.opts.PackageID),
	}

	if err := s.run(ctx, logger, res); err != nil {
		logger.Error().Err(err).Msg("Package update failed")
		return nil, errors.NewPackageError("update", s.opts.PackageID, res.Version, err)
	}

	logger.Info().
		Dur("duration", time.Since(startTime)).
		Strs("changed", res.Changed).
		Msg("Package update completed")
	return res, nil
}

func (s *Service) run(ctx context.Context, logger zerolog.Logger, res *Result) error {
	if err := s.fetchVariants(ctx, logger, res); err != nil {
		return err
	}
	if err := s.rewriteChecksums(logger, res); err != nil {
		return err
	}
	return s.rewriteVersion(logger, res)
}

// fetchVariants downloads and hashes every variant that has a URL
// configured. A variant without a URL is skipped, not an error.
func (s *Service) fetchVariants(ctx context.Context, logger zerolog.Logger, res *Result) error {
	sources := []struct {
		role types.Role
		url  string
	}{
		{types.X32, s.opts.URL},
		{types.X64, s.opts.URL64},
	}

	for _, src := range sources {
		if src.url == "" {
			logger.Debug().Str("role", string(src.role)).Msg("No URL configured for variant, skipping")
			continue
		}

		variant, err := s.fetchVariant(ctx, logger, src.role, src.url)
		if err != nil {
			return err
		}

		res.Variants = append(res.Variants, variant)
		res.Stats = append(res.Stats, types.UpdateStat{
			File:   filepath.Base(variant.Path),
			Action: "download",
			Status: types.StatusSuccess,
			Detail: common.GetSize(variant.Size),
		})
	}
	return nil
}

func (s *Service) fetchVariant(ctx context.Context, logger zerolog.Logger, role types.Role, url string) (*types.Variant, error) {
	variant := &types.Variant{Role: role, URL: url}

	path, err := s.fetcher.Fetch(ctx, url, role)
	if err != nil {
		return nil, err
	}
	variant.Path = path

	if info, err := os.Stat(path); err == nil {
		variant.Size = info.Size()
	}

	sum, err := checksum.FileSum(path, s.opts.Algorithm)
	if err != nil {
		return nil, err
	}
	variant.Checksum = sum

	logger.Info().
		Str("role", string(role)).
		Str("algorithm", string(s.opts.Algorithm)).
		Str("checksum", sum).
		Msg("Computed artifact checksum")

	return variant, nil
}

// rewriteChecksums replaces the digest of every fetched variant in the
// install script. Fields that are missing from the script are reported
// and left alone; the file is written back at most once.
func (s *Service) rewriteChecksums(logger zerolog.Logger, res *Result) error {
	if len(res.Variants) == 0 {
		logger.Info().Msg("No artifacts fetched, skipping checksum rewrite")
		return nil
	}

	data, err := fileutil.ReadFile(s.opts.ScriptPath)
	if err != nil {
		return err
	}

	scriptName := filepath.Base(s.opts.ScriptPath)
	text := string(data)
	updated := 0
	for _, variant := range res.Variants {
		field := checksumFields[variant.Role]

		next, found := script.SetField(text, field, variant.Checksum)
		switch {
		case !found:
			logger.Warn().
				Str("field", field).
				Str("script", s.opts.ScriptPath).
				Msg("Field not found in install script, leaving it unchanged")
			res.Stats = append(res.Stats, types.UpdateStat{
				File:   scriptName,
				Action: field,
				Status: types.StatusSkip,
				Detail: "field not found",
			})
		case next == text:
			logger.Info().Str("field", field).Msg("Field already carries this checksum")
			res.Stats = append(res.Stats, types.UpdateStat{
				File:   scriptName,
				Action: field,
				Status: types.StatusUnchanged,
				Detail: string(s.opts.Algorithm),
			})
		default:
			text = next
			updated++
			status := types.StatusSuccess
			if s.opts.DryRun {
				status = types.StatusPlanned
			}
			res.Stats = append(res.Stats, types.UpdateStat{
				File:   scriptName,
				Action: field,
				Status: status,
				Detail: string(s.opts.Algorithm),
			})
		}
	}

	if updated == 0 {
		return nil
	}

	res.Changed = append(res.Changed, s.opts.ScriptPath)
	if s.opts.DryRun {
		pterm.Info.Println(fmt.Sprintf("Would update %d checksum field(s) in %s (dry-run)", updated, scriptName))
		return nil
	}

	if err := fileutil.WriteFile(s.opts.ScriptPath, []byte(text)); err != nil {
		return err
	}
	logger.Info().Int("fields", updated).Str("path", s.opts.ScriptPath).Msg("Install script checksums updated")
	pterm.Success.Println(fmt.Sprintf("Updated %d checksum field(s) in %s", updated, scriptName))
	return nil
}

// rewriteVersion reads the product version from the chosen installer
// and writes it into the manifest. A missing manifest skips the stage;
// a failing version extraction aborts the run.
func (s *Service) rewriteVersion(logger zerolog.Logger, res *Result) error {
	manifest := res.ManifestPath
	manifestName := filepath.Base(manifest)

	if !fileutil.Exists(manifest) {
		logger.Info().Str("manifest", manifest).Msg("Manifest not found, skipping version update")
		pterm.Info.Println(fmt.Sprintf("No manifest at %s, version left as is", manifest))
		res.Stats = append(res.Stats, types.UpdateStat{
			File:   manifestName,
			Action: "version",
			Status: types.StatusSkip,
			Detail: "manifest not found",
		})
		return nil
	}

	source := versionSource(res.Variants)
	if source == nil {
		logger.Info().Msg("No artifact available for version extraction, skipping version update")
		res.Stats = append(res.Stats, types.UpdateStat{
			File:   manifestName,
			Action: "version",
			Status: types.StatusSkip,
			Detail: "no artifact fetched",
		})
		return nil
	}

	version, err := s.readProperty(source.Path, "ProductVersion")
	if err != nil {
		return err
	}
	res.Version = version
	logger.Info().
		Str("role", string(source.Role)).
		Str("version", version).
		Msg("Read product version from installer")

	data, err := fileutil.ReadFile(manifest)
	if err != nil {
		return err
	}

	if current, ok := nuspec.Version(data); ok && current == version {
		logger.Info().Str("version", version).Msg("Manifest already carries this version")
		res.Stats = append(res.Stats, types.UpdateStat{
			File:   manifestName,
			Action: "version",
			Status: types.StatusUnchanged,
			Detail: version,
		})
		return nil
	}

	out, found := nuspec.SetVersion(data, version)
	if !found {
		logger.Warn().Str("manifest", manifest).Msg("No version element found in manifest, leaving it unchanged")
		res.Stats = append(res.Stats, types.UpdateStat{
			File:   manifestName,
			Action: "version",
			Status: types.StatusSkip,
			Detail: "version element not found",
		})
		return nil
	}

	status := types.StatusSuccess
	res.Changed = append(res.Changed, manifest)
	if s.opts.DryRun {
		status = types.StatusPlanned
		pterm.Info.Println(fmt.Sprintf("Would set %s to version %s (dry-run)", manifestName, version))
	} else {
		if err := fileutil.WriteFile(manifest, out); err != nil {
			return err
		}
		logger.Info().Str("path", manifest).Str("version", version).Msg("Manifest version updated")
		pterm.Success.Println(fmt.Sprintf("Set %s to version %s", manifestName, version))
	}

	res.Stats = append(res.Stats, types.UpdateStat{
		File:   manifestName,
		Action: "version",
		Status: status,
		Detail: version,
	})
	return nil
}

// versionSource picks the variant whose installer drives the manifest
// version. The 64-bit build wins when both are present.
func versionSource(variants []*types.Variant) *types.Variant {
	var chosen *types.Variant
	for _, v := range variants {
		if chosen == nil || v.Role == types.X64 {
			chosen = v
		}
	}
	return chosen
}

// packageRoot infers the package repository root from the install
// script location. Chocolatey keeps install scripts in a tools
// subdirectory; a script living elsewhere is treated as sitting in the
// root itself.
func packageRoot(scriptPath string) string {
	dir := filepath.Dir(scriptPath)
	if strings.EqualFold(filepath.Base(dir), "tools") {
		return filepath.Dir(dir)
	}
	return dir
}

// defaultDownloadDir is a downloads directory next to the package root.
func defaultDownloadDir(scriptPath string) string {
	return filepath.Join(filepath.Dir(packageRoot(scriptPath)), "downloads")
}

// manifestPath is the nuspec manifest sitting in the package root.
func manifestPath(scriptPath, packageID string) string {
	return filepath.Join(packageRoot(scriptPath), packageID+".nuspec")
}
