package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeLocal_Nil(t *testing.T) {
	t.Parallel()

	global := Default()
	assert.Same(t, &global, MergeLocal(&global, nil))
}

func TestMergeLocal(t *testing.T) {
	t.Parallel()

	global := Default()
	global.WorkingPath = "/srv/site"

	serialize := true
	limit := int64(10)
	local := &LocalConfig{
		Server: LocalServer{Addr: ":7000", MaxBodyBytes: &limit},
		Run:    LocalRun{Serialize: &serialize},
		Log:    LocalLog{Color: "always"},
	}

	merged := MergeLocal(&global, local)
	assert.Equal(t, ":7000", merged.Server.Addr)
	assert.Equal(t, int64(10), merged.Server.MaxBodyBytes)
	assert.True(t, merged.Run.Serialize)
	assert.Equal(t, "always", merged.Log.Color)
	assert.Equal(t, "/srv/site", merged.WorkingPath)
	assert.Equal(t, global.Server.ReadTimeout, merged.Server.ReadTimeout)

	// global is untouched
	assert.Equal(t, ":8080", global.Server.Addr)
	assert.False(t, global.Run.Serialize)
}

func TestMergeLocal_FalseOverridesTrue(t *testing.T) {
	t.Parallel()

	global := Default()
	global.Run.Serialize = true

	off := false
	merged := MergeLocal(&global, &LocalConfig{Run: LocalRun{Serialize: &off}})
	assert.False(t, merged.Run.Serialize)
}

func TestResolve(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, LocalConfigFileName), "[server]\naddr = \":7000\"\n")

	global := Default()

	cfg, err := Resolve(&global, dir, noEnv)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, dir, cfg.WorkingPath)
	assert.Empty(t, global.WorkingPath)

	cfg, err = Resolve(&global, dir, envOf(map[string]string{"JIM_ADDR": ":1234"}))
	require.NoError(t, err)
	assert.Equal(t, ":1234", cfg.Server.Addr, "environment wins over .jim.toml")
}
