package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"apsim-soils/soil-backend/internal/config"
	"apsim-soils/soil-backend/internal/soils"
	"apsim-soils/soil-backend/internal/soils/export"
	"apsim-soils/soil-backend/pkg/mathutil"
)

var (
	logLevel     string
	outputPath   string
	outputFormat string
	exportFormat string
	concurrency  int

	logger *zap.Logger

	rootCmd = &cobra.Command{
		Use:   "soilctl",
		Short: "Normalize APSIM soil profiles from the command line",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = (&config.LoggingConfig{Level: logLevel}).NewLogger()
			return err
		},
		SilenceUsage: true,
	}

	normalizeCmd = &cobra.Command{
		Use:   "normalize [file...]",
		Short: "Normalize one or more soil profiles (JSON or YAML)",
		Long: `Normalizes each profile onto its target layer structure. A single
profile is written to --output or stdout. Several profiles are normalized
concurrently and each is written next to its input as <name>.normalized.<ext>.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runNormalize,
	}

	exportCmd = &cobra.Command{
		Use:   "export [file]",
		Short: "Normalize a soil profile and write its layer tables as XLSX, CSV or PDF",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}

	pawcCmd = &cobra.Command{
		Use:   "pawc [file]",
		Short: "Print the plant available water capacity of a normalized soil profile",
		Args:  cobra.ExactArgs(1),
		RunE:  runPAWC,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	normalizeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file for a single profile (default stdout)")
	normalizeCmd.Flags().StringVar(&outputFormat, "format", "", "output format, json or yaml (default: same as input)")
	normalizeCmd.Flags().IntVar(&concurrency, "concurrency", 4, "profiles normalized at once")

	exportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (required)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "xlsx, csv or pdf (default: from the output extension)")
	_ = exportCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(normalizeCmd, exportCmd, pawcCmd)
}

func newService() *soils.Service {
	return soils.NewService(nil, export.NewProfileExporter(), nil, soils.ServiceConfig{
		BatchConcurrency: concurrency,
	}, logger)
}

func readProfile(path string) (*soils.SoilProfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	profile, err := soils.DecodeProfile(f, soils.FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return profile, nil
}

func writeProfile(path string, profile *soils.SoilProfile, format soils.Format) error {
	if path == "" {
		return soils.EncodeProfile(os.Stdout, profile, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := soils.EncodeProfile(f, profile, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func normalizeFile(ctx context.Context, path string) (*soils.SoilProfile, error) {
	profile, err := readProfile(path)
	if err != nil {
		return nil, err
	}
	out, err := newService().Normalize(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

func runNormalize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if len(args) == 1 {
		out, err := normalizeFile(ctx, args[0])
		if err != nil {
			return err
		}
		format := soils.FormatFromPath(args[0])
		if outputFormat != "" {
			format = soils.Format(outputFormat)
		} else if outputPath != "" {
			format = soils.FormatFromPath(outputPath)
		}
		return writeProfile(outputPath, out, format)
	}

	profiles := make([]*soils.SoilProfile, len(args))
	for i, path := range args {
		p, err := readProfile(path)
		if err != nil {
			return err
		}
		profiles[i] = p
	}

	results, err := newService().NormalizeBatch(ctx, profiles)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		path := args[r.Index]
		if r.Error != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", path, r.Error.Msg)
			continue
		}
		format := soils.FormatFromPath(path)
		if outputFormat != "" {
			format = soils.Format(outputFormat)
		}
		dest := normalizedPath(path, format)
		if err := writeProfile(dest, r.Profile, format); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", path, dest)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d profiles failed", failed, len(results))
	}
	return nil
}

func normalizedPath(path string, format soils.Format) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".normalized." + string(format)
}

func runExport(cmd *cobra.Command, args []string) error {
	format := soils.ExportFormat(strings.TrimPrefix(filepath.Ext(outputPath), "."))
	if exportFormat != "" {
		format = soils.ExportFormat(exportFormat)
	}
	format, err := soils.ParseExportFormat(string(format))
	if err != nil {
		return err
	}

	out, err := normalizeFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := export.NewProfileExporter().Export(f, out, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runPAWC(cmd *cobra.Command, args []string) error {
	out, err := normalizeFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printPAWC(cmd.OutOrStdout(), out)
}

func printPAWC(w io.Writer, p *soils.SoilProfile) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Soil\t%s\n", p.Name)
	fmt.Fprintf(tw, "Depth (mm)\t%g\n", mathutil.Sum(p.Water.Thickness))
	if pawc := soils.PAWC(p); pawc != nil {
		fmt.Fprintf(tw, "PAWC LL15 (mm)\t%.1f\n", mathutil.Sum(pawc))
	}
	for _, crop := range p.Water.Crops {
		fmt.Fprintf(tw, "PAWC %s (mm)\t%.1f\n", crop.Name, mathutil.Sum(soils.PAWCCrop(p, crop)))
	}
	return tw.Flush()
}
