package common

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// resetVersion restores the build-time defaults after a test mutates them.
func resetVersion(t *testing.T) {
	t.Helper()
	version, build, commit := Version, Build, GitCommit
	t.Cleanup(func() {
		Version, Build, GitCommit = version, build, commit
	})
	Version, Build, GitCommit = "dev", "unknown", "unknown"
}

func TestApplyVersionFile(t *testing.T) {
	resetVersion(t)

	applyVersionFile(strings.NewReader(`
# release metadata
version: 1.4.2
build: 2026-08-29T10:00:00Z
commit: ab12cd3

malformed line without separator
`))

	assert.Equal(t, "1.4.2", Version)
	assert.Equal(t, "2026-08-29T10:00:00Z", Build)
	assert.Equal(t, "ab12cd3", GitCommit)
	assert.Equal(t, "1.4.2 (build: 2026-08-29T10:00:00Z, commit: ab12cd3)", GetFullVersion())
}

func TestApplyVersionFile_LdflagsWin(t *testing.T) {
	resetVersion(t)
	Version = "2.0.0"
	GitCommit = "ff99ee8"

	applyVersionFile(strings.NewReader("version: 1.0.0\nbuild: b1\ncommit: 0000000\n"))

	assert.Equal(t, "2.0.0", Version, "file must not override a linked version")
	assert.Equal(t, "b1", Build)
	assert.Equal(t, "ff99ee8", GitCommit, "file must not override a linked commit")
}

func TestApplyVersionFile_EmptyValuesIgnored(t *testing.T) {
	resetVersion(t)

	applyVersionFile(strings.NewReader("version:\ncommit:   \n"))

	assert.Equal(t, "dev", Version)
	assert.Equal(t, "unknown", GitCommit)
}
