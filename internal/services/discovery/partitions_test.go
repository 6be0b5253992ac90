package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPartitions(t *testing.T) {
	partitions := DefaultPartitions()
	require.Len(t, partitions, 41)
	assert.Equal(t, "San Francisco, USA", partitions[0].Name)
	assert.Equal(t, "Beijing, China", partitions[40].Name)

	seen := make(map[string]bool)
	for _, p := range partitions {
		assert.False(t, seen[p.Name], "duplicate partition %s", p.Name)
		seen[p.Name] = true
	}

	// callers get a copy
	partitions[0].Name = "changed"
	assert.Equal(t, "San Francisco, USA", DefaultPartitions()[0].Name)
}

func TestLoadPartitions(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "partitions.yaml")
	require.NoError(t, os.WriteFile(valid, []byte(`
partitions:
  - name: "Lisbon, Portugal"
    lat: 38.7223
    lng: -9.1393
  - name: "Denver, USA"
    lat: 39.7392
    lng: -104.9903
`), 0644))

	partitions, err := LoadPartitions(valid)
	require.NoError(t, err)
	require.Len(t, partitions, 2)
	assert.Equal(t, "Lisbon, Portugal", partitions[0].Name)
	assert.InDelta(t, -104.9903, partitions[1].Longitude, 0.00001)

	defaults, err := LoadPartitions("")
	require.NoError(t, err)
	assert.Len(t, defaults, 41)

	tests := []struct {
		name string
		body string
	}{
		{"empty", "partitions: []\n"},
		{"missing name", "partitions:\n  - lat: 1\n    lng: 2\n"},
		{"bad latitude", "partitions:\n  - name: x\n    lat: 95\n    lng: 2\n"},
		{"not yaml", "partitions: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))
			_, err := LoadPartitions(path)
			assert.Error(t, err)
		})
	}

	_, err = LoadPartitions(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
