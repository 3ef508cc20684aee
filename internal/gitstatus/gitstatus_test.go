package gitstatus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LiveData-Inc/air-toolkit/internal/gitstatus"
)

func TestIsDirtyNonGitDirectoryIsClean(t *testing.T) {
	dirty, err := gitstatus.IsDirty(t.TempDir())
	assert.NoError(t, err)
	assert.False(t, dirty)
}

func TestHeadShortHashNonGitDirectory(t *testing.T) {
	assert.Equal(t, "", gitstatus.HeadShortHash(t.TempDir()))
}

func TestIsDirtyAndHeadShortHashOnRealRepo(t *testing.T) {
	t.Skip("requires a real git2go-backed fixture repo; exercised in integration testing")
}
