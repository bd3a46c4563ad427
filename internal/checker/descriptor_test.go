package checker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDescriptorCoercions(t *testing.T) {
	t.Run("force update string forms", func(t *testing.T) {
		for raw, want := range map[any]bool{
			true: true, false: false, "true": true, "TRUE": true,
			"False": false, "yes": false, 1: false,
		} {
			desc := ParseDescriptor(map[string]any{"isForceUpdate": raw}, FieldMap{})
			require.Equal(t, want, desc.IsForceUpdate, "isForceUpdate=%v", raw)
		}
	})

	t.Run("publish date forms", func(t *testing.T) {
		desc := ParseDescriptor(map[string]any{"publishDate": "2025-03-04T12:30:00Z"}, FieldMap{})
		require.NotNil(t, desc.PublishDate)
		require.Equal(t, 3, int(desc.PublishDate.Month()))

		desc = ParseDescriptor(map[string]any{"publishDate": float64(1717236000000)}, FieldMap{})
		require.NotNil(t, desc.PublishDate)

		desc = ParseDescriptor(map[string]any{"publishDate": "not a date"}, FieldMap{})
		require.Nil(t, desc.PublishDate)

		desc = ParseDescriptor(map[string]any{}, FieldMap{})
		require.Nil(t, desc.PublishDate)
	})

	t.Run("file size forms", func(t *testing.T) {
		require.Equal(t, int64(1000), ParseDescriptor(map[string]any{"fileSize": float64(1000)}, FieldMap{}).FileSize)
		require.Equal(t, int64(1000), ParseDescriptor(map[string]any{"fileSize": "1000"}, FieldMap{}).FileSize)
		require.Equal(t, int64(0), ParseDescriptor(map[string]any{"fileSize": "huge"}, FieldMap{}).FileSize)
		require.Equal(t, int64(0), ParseDescriptor(map[string]any{}, FieldMap{}).FileSize)
	})

	t.Run("missing version and url become empty strings", func(t *testing.T) {
		desc := ParseDescriptor(map[string]any{"changelog": "notes"}, FieldMap{})
		require.Equal(t, "", desc.NewVersion)
		require.Equal(t, "", desc.DownloadURL)
		require.Equal(t, "notes", desc.Changelog)
	})
}

func TestParseDescriptorExtra(t *testing.T) {
	desc := ParseDescriptor(map[string]any{
		"version":     "1.0.0",
		"downloadUrl": "https://x",
		"channel":     "stable",
		"signature":   "sig",
	}, FieldMap{})
	require.Equal(t, map[string]any{"channel": "stable", "signature": "sig"}, desc.Extra)

	// Extra stays nil, never empty, when every key is recognized.
	desc = ParseDescriptor(map[string]any{"version": "1.0.0"}, FieldMap{})
	require.Nil(t, desc.Extra)
}
