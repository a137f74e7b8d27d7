package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStep_Hash(t *testing.T) {
	a := Step{Version: "001", Name: "a", SQL: "CREATE TABLE t (id BIGINT)"}
	b := Step{Version: "002", Name: "b", SQL: "CREATE TABLE t (id BIGINT)"}
	c := Step{Version: "001", Name: "a", SQL: "CREATE TABLE t (id BIGSERIAL)"}

	// Hash covers content only, so identical SQL under different versions
	// hashes the same and edited SQL surfaces as drift.
	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash())
	assert.Len(t, a.Hash(), 64)
}

func assertWellFormed(t *testing.T, steps []Step) {
	t.Helper()
	require.NotEmpty(t, steps)

	seen := map[string]bool{}
	prev := ""
	for _, s := range steps {
		require.Len(t, s.Version, 3, "version %q must be a 3-digit ordinal", s.Version)
		require.False(t, seen[s.Version], "duplicate version %s", s.Version)
		require.Greater(t, s.Version, prev, "versions must ascend: %s after %s", s.Version, prev)
		require.NotEmpty(t, s.Name)
		require.NotEmpty(t, s.SQL)
		seen[s.Version] = true
		prev = s.Version
	}
}

func TestMainSteps_WellFormed(t *testing.T) {
	assertWellFormed(t, MainSteps())
}

func TestTenantSteps_WellFormed(t *testing.T) {
	assertWellFormed(t, TenantSteps())
}
