// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cr2-converter/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord(name string, format types.OutputFormat, model string) types.ConversionRecord {
	return types.ConversionRecord{
		Source: filepath.Join("/photos", name+".CR2"),
		Output: filepath.Join("/out", name+"."+string(format)),
		Format: format,
		Metadata: types.ImageMetadata{
			Make:       "Canon",
			Model:      model,
			CapturedAt: time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
			Width:      5616,
			Height:     3744,
		},
		ConvertedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestRecordAndList(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, sampleRecord("a", types.FormatJPG, "Canon EOS 5D Mark II")))
	require.NoError(t, s.Record(ctx, sampleRecord("b", types.FormatPNG, "Canon EOS 7D")))

	got, err := s.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first.
	assert.Equal(t, filepath.Join("/photos", "b.CR2"), got[0].Source)
	assert.Equal(t, types.FormatPNG, got[0].Format)
	assert.NotZero(t, got[0].ID)

	a := got[1]
	assert.Equal(t, filepath.Join("/out", "a.jpg"), a.Output)
	assert.Equal(t, "Canon EOS 5D Mark II", a.Metadata.Model)
	assert.Equal(t, 5616, a.Metadata.Width)
	assert.True(t, a.Metadata.CapturedAt.Equal(time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)))
	assert.True(t, a.ConvertedAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))
}

func TestListFilters(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	for _, rec := range []types.ConversionRecord{
		sampleRecord("a", types.FormatJPG, "Canon EOS 5D"),
		sampleRecord("b", types.FormatPNG, "Canon EOS 5D"),
		sampleRecord("c", types.FormatJPG, "Canon EOS 7D"),
	} {
		require.NoError(t, s.Record(ctx, rec))
	}

	tests := []struct {
		name string
		opts ListOptions
		want int
	}{
		{"no filter", ListOptions{}, 3},
		{"by format", ListOptions{Format: types.FormatJPG}, 2},
		{"by model", ListOptions{Model: "Canon EOS 5D"}, 2},
		{"format and model", ListOptions{Format: types.FormatJPG, Model: "Canon EOS 7D"}, 1},
		{"limit", ListOptions{Limit: 1}, 1},
		{"no match", ListOptions{Format: types.FormatBMP}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.opts)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestRecordWithoutMetadata(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	rec := types.ConversionRecord{
		Source:      "/photos/x.CR2",
		Output:      "/out/x.bmp",
		Format:      types.FormatBMP,
		ConvertedAt: time.Now(),
	}
	require.NoError(t, s.Record(ctx, rec))

	got, err := s.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Metadata.CapturedAt.IsZero())
	assert.Empty(t, got[0].Metadata.Model)
}

func TestReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, sampleRecord("a", types.FormatJPG, "Canon EOS 5D")))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, path, s.Path())

	got, err := s.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestExport(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.Record(ctx, sampleRecord("a", types.FormatJPG, "Canon EOS 5D")))
	require.NoError(t, s.Record(ctx, sampleRecord("b", types.FormatTIFF, "Canon EOS 7D")))

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, s.ExportYAML(ctx, &buf, ListOptions{}))

		var got []types.ConversionRecord
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, types.FormatTIFF, got[0].Format)
		assert.Contains(t, buf.String(), "model: Canon EOS 5D")
	})

	t.Run("json with filter", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, s.ExportJSON(ctx, &buf, ListOptions{Format: types.FormatJPG}))

		var got []types.ConversionRecord
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, filepath.Join("/out", "a.jpg"), got[0].Output)
	})
}
