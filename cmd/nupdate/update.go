package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nupdate/nupdate/config"
	"github.com/nupdate/nupdate/module/choco/types"
	"github.com/nupdate/nupdate/module/choco/update"
	"github.com/nupdate/nupdate/util/common/errors"
	"github.com/nupdate/nupdate/util/common/printer"
	"github.com/nupdate/nupdate/util/templates"
)

func updateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Download installers and refresh package checksums and version",
		Long: templates.LongDesc(`
      Update downloads the configured installer variants, then rewrites
      the checksum fields of the install script and sets the nuspec
      manifest version to the installer's ProductVersion.

      Every value can come from flags or from a YAML update definition:

        package: unifiidentity
        script: pkg/tools/chocolateyinstall.ps1

        source:
          url: https://example.com/installer-x86.msi
          url64: https://example.com/installer-x64.msi

        checksum:
          algorithm: sha256

        download:
          dir: downloads
          retry:
            attempts: 5
            delay: 2s

      Flags win over the definition file. Environment variables can be
      used in the definition using ${VAR_NAME} syntax.

      Usage example:
        nupdate update -c unifiidentity.yaml
        nupdate update -s pkg/tools/chocolateyinstall.ps1 --url64 https://example.com/installer-x64.msi`),
		RunE: runUpdate,
	}

	flags := cmd.Flags()
	flags.StringVarP(&config.Global.Update.ScriptPath, "script", "s", "", "Path to the install script (chocolateyinstall.ps1)")
	flags.StringVar(&config.Global.Update.URL, "url", "", "URL of the 32-bit installer")
	flags.StringVar(&config.Global.Update.URL64, "url64", "", "URL of the 64-bit installer")
	flags.StringVar(&config.Global.Update.Algorithm, "algorithm", "", "Checksum algorithm, one of (md5|sha1|sha256|sha384|sha512)")
	flags.StringVar(&config.Global.Update.DownloadDir, "download-dir", "", "Directory for downloaded installers")
	flags.StringVar(&config.Global.Update.PackageID, "package", "", "Package id, names the <id>.nuspec manifest")
	flags.StringVarP(&config.Global.Update.ConfigPath, "config", "c", "", "Path to a YAML update definition")
	flags.IntVar(&config.Global.Update.Attempts, "attempts", 0, "Download attempts before giving up (default 5)")
	flags.DurationVar(&config.Global.Update.RetryDelay, "retry-delay", 0, "Fixed delay between download attempts (default 2s)")
	flags.BoolVar(&config.Global.Update.DryRun, "dry-run", false, "Report what would change without writing files")

	return cmd
}

func runUpdate(cmd *cobra.Command, args []string) error {
	opts, err := buildOptions()
	if err != nil {
		return err
	}

	svc, err := update.NewService(opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Set up signal handling for graceful shutdown
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalChan
		fmt.Println("\nReceived interrupt signal, shutting down gracefully...")
		cancel()
	}()

	res, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	if config.Global.Format == "json" {
		return printer.PrintJson(res)
	}
	return printer.Print(res.Stats, [][]string{
		{"File", "File"},
		{"Action", "Action"},
		{"Status", "Status"},
		{"Detail", "Detail"},
	})
}

// buildOptions merges the command line flags with the update definition
// file when one was given. Flags win over the definition.
func buildOptions() (update.Options, error) {
	cfg := config.Global.Update

	opts := update.Options{
		ScriptPath:  cfg.ScriptPath,
		URL:         cfg.URL,
		URL64:       cfg.URL64,
		DownloadDir: cfg.DownloadDir,
		PackageID:   cfg.PackageID,
		Attempts:    cfg.Attempts,
		RetryDelay:  cfg.RetryDelay,
		DryRun:      cfg.DryRun,
	}

	if cfg.Algorithm != "" {
		algo, err := types.ParseAlgorithm(cfg.Algorithm)
		if err != nil {
			return update.Options{}, err
		}
		opts.Algorithm = algo
	}

	if cfg.ConfigPath == "" {
		return opts, nil
	}

	def, err := types.LoadDefinition(cfg.ConfigPath)
	if err != nil {
		return update.Options{}, err
	}

	if opts.ScriptPath == "" {
		opts.ScriptPath = def.Script
	}
	if opts.PackageID == "" {
		opts.PackageID = def.Package
	}
	if opts.URL == "" {
		opts.URL = def.Source.URL
	}
	if opts.URL64 == "" {
		opts.URL64 = def.Source.URL64
	}
	if opts.Algorithm == "" && def.Checksum.Algorithm != "" {
		algo, err := types.ParseAlgorithm(def.Checksum.Algorithm)
		if err != nil {
			return update.Options{}, err
		}
		opts.Algorithm = algo
	}
	if opts.DownloadDir == "" {
		opts.DownloadDir = def.Download.Dir
	}
	if opts.Attempts == 0 {
		opts.Attempts = def.Download.Retry.Attempts
	}
	if opts.RetryDelay == 0 && def.Download.Retry.Delay != "" {
		delay, err := time.ParseDuration(def.Download.Retry.Delay)
		if err != nil {
			return update.Options{}, errors.NewValidationError("retry.delay", err.Error())
		}
		opts.RetryDelay = delay
	}

	return opts, nil
}
