package hook

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testParent struct {
	root string
}

func (p testParent) WorkingPath() string { return p.root }
func (p testParent) HooksPath() string   { return filepath.Join(p.root, "hooks") }

func newTestParent(t *testing.T) testParent {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "hooks"), 0o755))
	return testParent{root: root}
}

func mustHook(t *testing.T, name string, parent Parent, opts ...Option) *Hook {
	t.Helper()
	h, err := New(name, parent, opts...)
	require.NoError(t, err)
	return h
}

func TestParseName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{"deploy", "deploy"},
		{"deploy.sh", "deploy"},
		{"deploy.sh.sh", "deploy-sh"},
		{"my hook", "my-hook"},
		{"build_and-test", "build_and-test"},
		{"a/b\\c", "a-b-c"},
		{"v1.2.3", "v1-2-3"},
		{".sh", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseName(tt.raw))
		})
	}
}

func TestParseName_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"deploy", "deploy.sh", "x.sh.sh", "hello world!", "ünïcödé", "..", "a.b.sh",
		"trailing-", "sh", ".sh.sh", "tab\there", "UPPER.SH", "emoji 🚀 hook",
	}
	for _, in := range inputs {
		once := ParseName(in)
		assert.Equal(t, once, ParseName(once), "ParseName not idempotent for %q", in)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	parent := testParent{root: "/srv/app"}

	h := mustHook(t, "deploy.sh", parent)
	assert.Equal(t, "deploy", h.Name)
	assert.Equal(t, "/srv/app/hooks/deploy", h.Path)
	assert.Equal(t, "/srv/app/hooks/deploy/script.sh", h.ScriptPath)
	assert.Equal(t, "/srv/app/hooks/deploy/runs", h.RunsPath)

	_, err := New(".sh", parent)
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = New("deploy", nil)
	assert.ErrorIs(t, err, ErrNoParent)
}

func TestCreateDestroy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := mustHook(t, "deploy", newTestParent(t))

	assert.False(t, h.Exists())

	require.NoError(t, h.Create(ctx, CreateOptions{Command: "echo deploying"}))
	assert.True(t, h.Exists())
	assert.DirExists(t, h.RunsPath)

	body, err := os.ReadFile(h.ScriptPath)
	require.NoError(t, err)
	assert.Equal(t, "echo deploying", string(body))

	require.NoError(t, h.Destroy(ctx))
	assert.False(t, h.Exists())
	assert.NoDirExists(t, h.Path)
}

func TestCreate_Twice(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := mustHook(t, "deploy", newTestParent(t))

	require.NoError(t, h.Create(ctx, CreateOptions{Command: "echo first"}))
	require.NoError(t, h.Create(ctx, CreateOptions{Command: "echo second"}))

	body, err := os.ReadFile(h.ScriptPath)
	require.NoError(t, err)
	assert.Equal(t, "echo first", string(body))
}

func TestCreate_NoScript(t *testing.T) {
	t.Parallel()

	h := mustHook(t, "deploy", newTestParent(t))

	err := h.Create(context.Background(), CreateOptions{})
	assert.ErrorIs(t, err, ErrNoScript)
	assert.NoDirExists(t, h.Path)

	err = h.Create(context.Background(), CreateOptions{Command: "true", Script: "/tmp/x.sh"})
	assert.ErrorIs(t, err, ErrBothScript)
	assert.NoDirExists(t, h.Path)
}

func TestCreate_FromScriptFile(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "build.sh")
	require.NoError(t, os.WriteFile(src, []byte("#!/bin/bash\nmake\n"), 0o644))

	h := mustHook(t, "build", newTestParent(t))
	require.NoError(t, h.Create(context.Background(), CreateOptions{Script: src}))

	body, err := os.ReadFile(h.ScriptPath)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/bash\nmake\n", string(body))
}

func TestCreate_MissingScriptFile(t *testing.T) {
	t.Parallel()

	h := mustHook(t, "build", newTestParent(t))
	err := h.Create(context.Background(), CreateOptions{Script: filepath.Join(t.TempDir(), "missing.sh")})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.False(t, h.Exists())
}

func TestDestroy_NotExist(t *testing.T) {
	t.Parallel()

	h := mustHook(t, "ghost", newTestParent(t))
	err := h.Destroy(context.Background())
	assert.ErrorIs(t, err, ErrNotExist)
	assert.Contains(t, err.Error(), `hook "ghost" doesn't exist`)
}

func TestCommand(t *testing.T) {
	t.Parallel()

	h := mustHook(t, "deploy", testParent{root: "/srv/app"})

	got := h.Command(map[string]string{"branch": "main release"})
	assert.Contains(t, got, "JIM_BRANCH=main+release")
	assert.Contains(t, got, "JIM_ROOT=/srv/app")
	assert.True(t, strings.HasSuffix(got, "bash /srv/app/hooks/deploy/script.sh"), got)
}

func TestCommand_Deterministic(t *testing.T) {
	t.Parallel()

	h := mustHook(t, "deploy", testParent{root: "/srv/app"})
	env := map[string]string{"tag": "v1", "branch": "main", "a": "b"}

	want := "JIM_A=b JIM_BRANCH=main JIM_ROOT=/srv/app JIM_TAG=v1 bash /srv/app/hooks/deploy/script.sh"
	assert.Equal(t, want, h.Command(env))
	assert.Equal(t, want, h.Command(env))
}

func TestCommand_RootOverridesParameter(t *testing.T) {
	t.Parallel()

	h := mustHook(t, "deploy", testParent{root: "/srv/app"})
	env := map[string]string{"root": "/etc"}

	got := h.Command(env)
	assert.Contains(t, got, "JIM_ROOT=/srv/app")
	assert.NotContains(t, got, "/etc")
	assert.Equal(t, "/etc", env["root"], "Command must not mutate its argument")
}

func TestEnvKey(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"branch":        "JIM_BRANCH",
		"Ref-Name":      "JIM_REF_NAME",
		"head.commit":   "JIM_HEAD_COMMIT",
		"already_snake": "JIM_ALREADY_SNAKE",
	}
	for in, want := range tests {
		assert.Equal(t, want, EnvKey(in), in)
	}
}

func TestEnvValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "v1.2.3", "v1.2.3"},
		{"whitespace run", "main \t release", "main+release"},
		{"unicode spaces", "main\u00a0\vrelease\u2003x\ufeff", "main+release+x+"},
		{"plus kept", "a+b", "a+b"},
		{"empty", "", ""},
		{"url", "https://example.com/a?b=c", "'https://example.com/a?b=c'"},
		{"substitution quoted", "$(rm -rf /)", "'$(rm+-rf+/)'"},
		{"single quote", "it's", `'it'\''s'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, EnvValue(tt.in))
		})
	}
}

func TestAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	parent := newTestParent(t)

	for _, name := range []string{"build", "deploy"} {
		require.NoError(t, mustHook(t, name, parent).Create(ctx, CreateOptions{Command: "true"}))
	}
	// stray entries without a script.sh
	require.NoError(t, os.MkdirAll(filepath.Join(parent.HooksPath(), "empty", "runs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(parent.HooksPath(), "README"), []byte("x"), 0o644))

	hooks, err := All(parent)
	require.NoError(t, err)

	var names []string
	for _, h := range hooks {
		names = append(names, h.Name)
	}
	assert.Equal(t, []string{"build", "deploy"}, names)
}

func TestAll_MissingDirectory(t *testing.T) {
	t.Parallel()

	_, err := All(testParent{root: filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}
