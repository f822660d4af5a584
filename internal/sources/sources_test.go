package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRegionsEmbedded(t *testing.T) {
	regions, err := LoadRegions("")
	require.NoError(t, err)
	assert.Len(t, regions, 50)

	seen := make(map[string]struct{}, len(regions))
	for _, r := range regions {
		assert.NotEmpty(t, r.Key)
		assert.NotEmpty(t, r.Name)
		assert.NotEmpty(t, r.URL)
		_, dup := seen[r.Key]
		assert.False(t, dup, "duplicate region key %q", r.Key)
		seen[r.Key] = struct{}{}
	}
}

func TestLoadLocalBoardsEmbedded(t *testing.T) {
	boards, err := LoadLocalBoards("")
	require.NoError(t, err)
	assert.Len(t, boards, 11)
	for _, b := range boards {
		assert.NotEmpty(t, b.Key)
		assert.NotEmpty(t, b.URL)
	}
}

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRegionsFromFile(t *testing.T) {
	path := writeYAML(t, `
regions:
  - key: tx
    name: Texas SmartBuy
    url: https://www.txsmartbuy.com/esbd
    headers:
      X-Requested-With: XMLHttpRequest
`)
	regions, err := LoadRegions(path)
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, "tx", regions[0].Key)
	assert.Equal(t, "XMLHttpRequest", regions[0].Headers["X-Requested-With"])
}

func TestLoadRegionsValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			"missing url",
			"regions:\n  - key: tx\n    name: Texas\n",
			"key, name and url are required",
		},
		{
			"duplicate key",
			"regions:\n  - {key: tx, name: A, url: https://a}\n  - {key: tx, name: B, url: https://b}\n",
			"duplicate key",
		},
		{
			"bad yaml",
			"regions: [",
			"parse regions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRegions(writeYAML(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadLocalBoardsFromFile(t *testing.T) {
	path := writeYAML(t, `
boards:
  - key: example-city
    name: City of Example
    url: https://example.gov/bids
    fallbacks:
      - https://example.gov/purchasing
      - https://example.gov/departments/finance/bids
`)
	boards, err := LoadLocalBoards(path)
	require.NoError(t, err)
	require.Len(t, boards, 1)
	assert.Len(t, boards[0].Fallbacks, 2)
}

func TestLoadLocalBoardsValidation(t *testing.T) {
	_, err := LoadLocalBoards(writeYAML(t, "boards:\n  - key: x\n    url: https://x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key, name and url are required")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadRegions(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read regions file")

	_, err = LoadLocalBoards(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read local boards file")
}
