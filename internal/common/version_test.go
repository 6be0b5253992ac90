package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionInfo(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "1.2.3"
	info := VersionInfo()

	assert.Equal(t, "1.2.3", info["version"])
	assert.Contains(t, GetFullVersion(), "1.2.3")
	assert.Equal(t, "1.2.3", LoadVersionFromFile())
}
