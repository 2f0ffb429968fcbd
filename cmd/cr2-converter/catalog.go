// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/cr2-converter/internal/catalog"
	"github.com/pdiddy/cr2-converter/pkg/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the catalog of converted images",
	Long: `Catalog reads the SQLite database written when conversions run with
--catalog PATH. Use subcommands to list recent conversions or export them.`,
}

// --- list subcommand ---

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded conversions, newest first",
	Args:  cobra.NoArgs,
	RunE:  runCatalogList,
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	store, err := catalog.Open(catalogPath())
	if err != nil {
		return err
	}
	defer store.Close()

	opts, err := listOptsFromFlags(cmd)
	if err != nil {
		return err
	}
	records, err := store.List(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatListOutput(cmd.OutOrStdout(), records, jsonOutput)
}

func formatListOutput(w io.Writer, records []types.ConversionRecord, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "No conversions recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-5s  %-30s  %-6s  %-24s  %-11s  %s\n",
		"ID", "Source", "Format", "Camera", "Size", "Converted")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, r := range records {
		src := filepath.Base(r.Source)
		if len(src) > 30 {
			src = src[:27] + "..."
		}
		camera := r.Metadata.Model
		if len(camera) > 24 {
			camera = camera[:21] + "..."
		}
		size := fmt.Sprintf("%dx%d", r.Metadata.Width, r.Metadata.Height)
		fmt.Fprintf(w, "%-5d  %-30s  %-6s  %-24s  %-11s  %s\n",
			r.ID, src, r.Format, camera, size, r.ConvertedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(w, "\n%d conversions\n", len(records))
	return nil
}

// --- export subcommand ---

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog to YAML or JSON on stdout",
	Args:  cobra.NoArgs,
	RunE:  runCatalogExport,
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := catalog.Open(catalogPath())
	if err != nil {
		return err
	}
	defer store.Close()

	opts, err := listOptsFromFlags(cmd)
	if err != nil {
		return err
	}

	switch format {
	case "yaml", "":
		return store.ExportYAML(cmd.Context(), cmd.OutOrStdout(), opts)
	case "json":
		return store.ExportJSON(cmd.Context(), cmd.OutOrStdout(), opts)
	default:
		return fmt.Errorf("unsupported export format %q: use yaml or json", format)
	}
}

// --- shared helpers ---

func catalogPath() string {
	if p := viper.GetString("catalog"); p != "" {
		return p
	}
	return catalog.DefaultPath
}

func listOptsFromFlags(cmd *cobra.Command) (catalog.ListOptions, error) {
	imageFormat, _ := cmd.Flags().GetString("image-format")
	model, _ := cmd.Flags().GetString("model")
	limit, _ := cmd.Flags().GetInt("limit")

	opts := catalog.ListOptions{Model: model, Limit: limit}
	if imageFormat != "" {
		f, err := types.ParseOutputFormat(imageFormat)
		if err != nil {
			return opts, err
		}
		opts.Format = f
	}
	return opts, nil
}

func init() {
	// Filters shared by list and export.
	catalogCmd.PersistentFlags().String("image-format", "", "filter by output format")
	catalogCmd.PersistentFlags().String("model", "", "filter by camera model")

	catalogListCmd.Flags().Int("limit", 0, "maximum rows (0 = default of 50)")
	catalogListCmd.Flags().Bool("json", false, "output results as JSON")

	catalogExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogExportCmd)

	rootCmd.AddCommand(catalogCmd)
}
