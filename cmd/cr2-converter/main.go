// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the cr2-converter CLI.
package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/cr2-converter/internal/catalog"
	"github.com/pdiddy/cr2-converter/internal/convert"
	"github.com/pdiddy/cr2-converter/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// logger carries diagnostics to stderr; status lines go to stdout.
var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "cr2-converter"})

// convertFlags are the root flags bound to viper keys of the same name.
var convertFlags = []string{"destination", "format", "batch", "verbose", "dry", "quality", "progress"}

// rootCmd converts one CR2 file, or a directory of them with --batch.
var rootCmd = &cobra.Command{
	Use:   "cr2-converter [options] FILE_PATH",
	Short: "Convert Canon CR2 raw images to JPEG, PNG, TIFF or BMP",
	Long: `cr2-converter converts Canon CR2 raw image files into common raster
formats. FILE_PATH names a single .CR2 file, or with --batch a directory whose
.CR2 files are all converted. Subdirectories are not searched.

Flags may also be set in cr2-converter.yaml or through CR2_CONVERTER_*
environment variables (for example CR2_CONVERTER_FORMAT=png).`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./cr2-converter.yaml or ~/.config/cr2-converter/config.yaml)")
	rootCmd.PersistentFlags().String("catalog", "", "SQLite database that records each conversion (disabled when empty)")

	f := rootCmd.Flags()
	f.StringP("destination", "d", "", "where to place converted image(s) (default: current working directory)")
	f.StringP("format", "f", string(types.DefaultFormat), "output format, one of: "+types.FormatList())
	f.BoolP("batch", "b", false, "process all .CR2 files in FILE_PATH, which must be a directory")
	f.BoolP("verbose", "v", false, "print detailed information during execution")
	f.Bool("dry", false, "validate and discover inputs without converting any image files")
	f.Int("quality", types.DefaultJPEGQuality, "JPEG quality, 1-100")
	f.Bool("progress", false, "show a progress bar in batch mode")

	bindFlags()
}

// bindFlags binds the root flags to viper keys of the same name.
func bindFlags() {
	for _, key := range convertFlags {
		_ = viper.BindPFlag(key, rootCmd.Flags().Lookup(key))
	}
	_ = viper.BindPFlag("catalog", rootCmd.PersistentFlags().Lookup("catalog"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("cr2-converter")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "cr2-converter"))
		}
	}

	viper.SetEnvPrefix("CR2_CONVERTER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger.Info("using config file", "path", viper.ConfigFileUsed())
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := configFromViper(args[0])
	if err != nil {
		return err
	}
	// Arguments parsed; later failures are not usage errors.
	cmd.SilenceUsage = true

	if cfg.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	cfg, err = convert.ResolveConfig(cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if cfg.Verbose {
		convert.WriteHeader(out, cfg)
	}
	if err := convert.CheckDestination(cfg); err != nil {
		return err
	}

	opts := []convert.Option{convert.WithLogger(logger)}
	if cfg.Progress {
		opts = append(opts, convert.WithProgress(cmd.ErrOrStderr()))
	}
	if cfg.CatalogPath != "" && !cfg.DryRun {
		store, err := catalog.Open(cfg.CatalogPath)
		if err != nil {
			return err
		}
		defer store.Close()
		logger.Debug("recording conversions", "catalog", store.Path())
		opts = append(opts, convert.WithRecorder(store))
	}

	codec := convert.NewImagingCodec(cfg.JPEGQuality)
	driver := convert.NewDriver(cfg, codec, out, opts...)
	return driver.Run(cmd.Context())
}

// configFromViper gathers the run configuration from flags, environment
// and config file. Only the format is validated here; paths are checked
// by convert.ResolveConfig.
func configFromViper(source string) (types.ConversionConfig, error) {
	format, err := types.ParseOutputFormat(viper.GetString("format"))
	if err != nil {
		return types.ConversionConfig{}, err
	}
	return types.ConversionConfig{
		Source:      source,
		Destination: viper.GetString("destination"),
		Format:      format,
		Batch:       viper.GetBool("batch"),
		Verbose:     viper.GetBool("verbose"),
		DryRun:      viper.GetBool("dry"),
		JPEGQuality: viper.GetInt("quality"),
		Progress:    viper.GetBool("progress"),
		CatalogPath: viper.GetString("catalog"),
	}, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
