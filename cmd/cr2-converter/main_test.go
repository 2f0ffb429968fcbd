// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cr2-converter/internal/convert"
	"github.com/pdiddy/cr2-converter/internal/raw/rawtest"
	"github.com/pdiddy/cr2-converter/pkg/types"
)

// execute runs the CLI with args after restoring every flag to its default
// and clearing viper, since both are package-level and keep state between
// runs. HOME points at an empty directory so no user config file is read.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	viper.Reset()
	bindFlags()
	t.Setenv("HOME", t.TempDir())
	rootCmd.SilenceUsage = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func dirs(t *testing.T) (string, string) {
	t.Helper()
	tmp := t.TempDir()
	src, dst := filepath.Join(tmp, "in"), filepath.Join(tmp, "out")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.MkdirAll(dst, 0o755))
	return src, dst
}

func TestConvertCommandSingle(t *testing.T) {
	src, dst := dirs(t)
	path := rawtest.Write(t, src, "IMG_0006.CR2", rawtest.Options{})

	out, err := execute(t, path, "-d", dst, "-f", "png")
	require.NoError(t, err)
	assert.Contains(t, out, "Converting IMG_0006 to png..")

	_, err = os.Stat(filepath.Join(dst, "IMG_0006.png"))
	assert.NoError(t, err)
}

func TestConvertCommandDryBatch(t *testing.T) {
	src, dst := dirs(t)
	rawtest.Write(t, src, "a.CR2", rawtest.Options{})
	rawtest.Write(t, src, "b.CR2", rawtest.Options{})

	out, err := execute(t, src, "--destination", dst, "--batch", "--dry")
	require.NoError(t, err)
	assert.Contains(t, out, "2 planned")

	entries, err := os.ReadDir(dst)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConvertCommandEmptyBatch(t *testing.T) {
	src, dst := dirs(t)

	out, err := execute(t, src, "-d", dst, "-b")
	require.NoError(t, err)
	assert.Contains(t, out, "No Image files with a .CR2 extension were found in the provided source directory. Exiting..")
}

func TestConvertCommandUsageErrors(t *testing.T) {
	src, dst := dirs(t)
	path := rawtest.Write(t, src, "a.CR2", rawtest.Options{})

	tests := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{"invalid format", []string{path, "-d", dst, "-f", "gif"}, "invalid format"},
		{"uppercase format", []string{path, "-d", dst, "-f", "PNG"}, "invalid format"},
		{"missing FILE_PATH", []string{"-d", dst}, "accepts 1 arg(s)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Contains(t, out, "Usage:")
		})
	}
}

func TestConvertCommandMissingDestination(t *testing.T) {
	src, dst := dirs(t)
	path := rawtest.Write(t, src, "a.CR2", rawtest.Options{})
	missing := filepath.Join(dst, "nope")

	out, err := execute(t, path, "-d", missing)
	require.Error(t, err)
	assert.ErrorIs(t, err, convert.ErrDestinationNotDirectory)
	assert.NotContains(t, out, "Usage:")
	assert.NotContains(t, out, "Converting")

	entries, err := os.ReadDir(dst)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConvertCommandVerboseMissingDestination(t *testing.T) {
	src, dst := dirs(t)
	path := rawtest.Write(t, src, "a.CR2", rawtest.Options{})
	missing := filepath.Join(dst, "nope")

	out, err := execute(t, path, "-v", "-d", missing)
	require.Error(t, err)
	assert.ErrorIs(t, err, convert.ErrDestinationNotDirectory)
	assert.Contains(t, out, "Source: "+path)
	assert.Contains(t, out, "Destination: "+missing)
	assert.NotContains(t, out, "Running in single mode")
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestConvertCommandConfigLayering(t *testing.T) {
	tests := []struct {
		name   string
		env    string // CR2_CONVERTER_FORMAT, empty for unset
		config string // format in the config file, empty for no file
		flag   string // -f value, empty for unset
		want   string
	}{
		{name: "defaults", want: "jpg"},
		{name: "environment", env: "png", want: "png"},
		{name: "flag beats environment", env: "png", flag: "bmp", want: "bmp"},
		{name: "config file", config: "tiff", want: "tiff"},
		{name: "environment beats config file", env: "png", config: "tiff", want: "png"},
		{name: "flag beats config file", config: "tiff", flag: "jpeg", want: "jpeg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, dst := dirs(t)
			path := rawtest.Write(t, src, "IMG_0006.CR2", rawtest.Options{})

			// viper ignores empty environment values.
			t.Setenv("CR2_CONVERTER_FORMAT", tt.env)
			args := []string{path, "-d", dst}
			if tt.config != "" {
				args = append(args, "--config", writeConfig(t, "format: "+tt.config+"\n"))
			}
			if tt.flag != "" {
				args = append(args, "-f", tt.flag)
			}

			_, err := execute(t, args...)
			require.NoError(t, err)

			entries, err := os.ReadDir(dst)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, "IMG_0006."+tt.want, entries[0].Name())
		})
	}
}

func TestConvertCommandConfigFileDestination(t *testing.T) {
	src, dst := dirs(t)
	path := rawtest.Write(t, src, "a.CR2", rawtest.Options{})
	cfg := writeConfig(t, "destination: "+dst+"\nformat: bmp\n")

	_, err := execute(t, path, "--config", cfg)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dst, "a.bmp"))
	assert.NoError(t, err)
}

func TestConvertCommandEnvironmentDestination(t *testing.T) {
	src, dst := dirs(t)
	path := rawtest.Write(t, src, "a.CR2", rawtest.Options{})
	t.Setenv("CR2_CONVERTER_DESTINATION", dst)

	_, err := execute(t, path)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dst, "a.jpg"))
	assert.NoError(t, err)
}

func TestConvertCommandCatalog(t *testing.T) {
	src, dst := dirs(t)
	rawtest.Write(t, src, "a.CR2", rawtest.Options{Model: "Canon EOS 5D"})
	db := filepath.Join(t.TempDir(), "catalog.db")

	_, err := execute(t, src, "-d", dst, "-b", "--catalog", db)
	require.NoError(t, err)

	out, err := execute(t, "catalog", "list", "--json", "--catalog", db)
	require.NoError(t, err)

	var records []types.ConversionRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, filepath.Join(dst, "a.jpg"), records[0].Output)
	assert.Equal(t, "Canon EOS 5D", records[0].Metadata.Model)

	out, err = execute(t, "catalog", "export", "--format", "yaml", "--catalog", db)
	require.NoError(t, err)
	assert.Contains(t, out, "model: Canon EOS 5D")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "cr2-converter dev\n", out)
}
