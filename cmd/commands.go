package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ethanolivertroy/license-audit/internal/collector"
	"github.com/ethanolivertroy/license-audit/internal/config"
	"github.com/ethanolivertroy/license-audit/internal/manifest"
	"github.com/ethanolivertroy/license-audit/internal/models"
	"github.com/ethanolivertroy/license-audit/internal/reporter"
	"github.com/ethanolivertroy/license-audit/internal/snapshot"
)

// pipeline is everything one command invocation needs
type pipeline struct {
	cfg       *models.Config
	logger    *log.Logger
	collector *collector.Collector
}

func newCollectCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect dependency license files into a staging directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := newPipeline(cmd, opts)
			if err != nil {
				return err
			}

			report, err := p.collector.Collect(cmd.Context(), p.cfg)
			if err != nil {
				return fmt.Errorf("collect failed: %w", err)
			}
			return p.render(cmd, report)
		},
	}
	addPipelineFlags(cmd)
	return cmd
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Fail if the committed license files differ from a fresh collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := newPipeline(cmd, opts)
			if err != nil {
				return err
			}

			report, err := snapshot.Validate(cmd.Context(), p.collector, p.cfg, p.logger)
			if report != nil {
				if renderErr := p.render(cmd, report); renderErr != nil {
					return renderErr
				}
			}

			var drift *snapshot.DriftError
			if errors.As(err, &drift) {
				return &ExitError{Code: ExitDrift, Err: drift}
			}
			if err != nil {
				return fmt.Errorf("validate failed: %w", err)
			}
			return nil
		},
	}
	addPipelineFlags(cmd)
	return cmd
}

func newPublishCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Copy a fresh collection into the committed license directory",
		Long: `publish collects licenses and copies every staged file into the committed
directory, overwriting existing files. Committed files without a staged
counterpart are kept unless --prune is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := newPipeline(cmd, opts)
			if err != nil {
				return err
			}

			report, err := snapshot.Publish(cmd.Context(), p.collector, p.cfg, p.logger)
			if err != nil {
				return fmt.Errorf("publish failed: %w", err)
			}
			return p.render(cmd, report)
		},
	}
	addPipelineFlags(cmd)
	cmd.Flags().Bool("prune", false, "delete committed files that were not collected")
	return cmd
}

func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("ecosystem", "e", "", "package ecosystem: dart, swift, gomod, npm")
	_ = cmd.MarkFlagRequired("ecosystem")
	config.RegisterFlags(cmd.Flags())
}

func newPipeline(cmd *cobra.Command, opts *rootOptions) (*pipeline, error) {
	name, err := cmd.Flags().GetString("ecosystem")
	if err != nil {
		return nil, err
	}
	eco, err := models.ParseEcosystem(name)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(eco, opts.configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	reader, err := manifest.Get(eco, nil)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cmd.ErrOrStderr(), opts)
	return &pipeline{
		cfg:       cfg,
		logger:    logger,
		collector: collector.New(reader, logger),
	}, nil
}

// render writes the report to the output file, or stdout
func (p *pipeline) render(cmd *cobra.Command, report *models.CollectionReport) error {
	output, err := reporter.Get(p.cfg.OutputFormat).Report(report)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if p.cfg.OutputFile != "" {
		if err := os.WriteFile(p.cfg.OutputFile, output, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		p.logger.Info("report written", "file", p.cfg.OutputFile)
		return nil
	}

	_, err = cmd.OutOrStdout().Write(output)
	return err
}
