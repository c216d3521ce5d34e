package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/larder/internal/paths"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// env is an isolated config and data directory pair.
type env struct {
	configDir string
	dataDir   string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	for _, k := range []string{paths.EnvConfigDir, paths.EnvDataDir, "LARDER_INDEX_WIDTH", "LARDER_BACKEND"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	return &env{
		configDir: filepath.Join(dir, "config"),
		dataDir:   filepath.Join(dir, "data"),
	}
}

// run executes one larder command in-process.
func (e *env) run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	args = append(args, "--config-dir", e.configDir, "--data-dir", e.dataDir)
	code := run(root, args)
	return out.String(), errOut.String(), code
}

// ok runs a command that must succeed and returns its stdout.
func (e *env) ok(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, code := e.run(t, args...)
	require.Equal(t, exitSuccess, code, "larder %v: %s", args, errOut)
	return out
}

func initialized(t *testing.T) *env {
	t.Helper()
	e := newEnv(t)
	e.ok(t, "init")
	return e
}

func TestCommandPresence(t *testing.T) {
	root := NewRootCmd()
	commands := [][]string{
		{"init"}, {"version"}, {"keygen"}, {"whoami"},
		{"address", "profile"}, {"address", "item"},
		{"profile", "init"}, {"profile", "show"},
		{"item", "add"}, {"item", "mark"}, {"item", "delete"}, {"item", "show"}, {"item", "list"},
	}
	for _, path := range commands {
		t.Run(strings.Join(path, " "), func(t *testing.T) {
			sub, _, err := root.Find(path)
			require.NoError(t, err)
			assert.Equal(t, path[len(path)-1], sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"config-dir", "data-dir", "owner", "json", "verbose"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "v", root.PersistentFlags().Lookup("verbose").Shorthand)
}

func TestVersion(t *testing.T) {
	e := newEnv(t)
	out := e.ok(t, "version")
	assert.Contains(t, out, "larder v")
	assert.Contains(t, out, modulePath)
}

func TestInit(t *testing.T) {
	e := newEnv(t)
	out := e.ok(t, "init")
	assert.Contains(t, out, "Larder initialized successfully")

	assert.FileExists(t, filepath.Join(e.configDir, paths.ConfigFileName))
	assert.FileExists(t, filepath.Join(e.configDir, paths.KeyFileName))
	assert.FileExists(t, filepath.Join(e.dataDir, "records.jsonl"))

	// Idempotent: the identity is kept.
	first := strings.TrimSpace(e.ok(t, "whoami"))
	e.ok(t, "init")
	assert.Equal(t, first, strings.TrimSpace(e.ok(t, "whoami")))
}

func TestKeygenRefusesOverwrite(t *testing.T) {
	e := newEnv(t)
	id := strings.TrimSpace(e.ok(t, "keygen"))
	_, err := types.ParseIdentity(id)
	require.NoError(t, err)

	_, errOut, code := e.run(t, "keygen")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "already exists")
}

func TestLifecycle(t *testing.T) {
	e := initialized(t)

	e.ok(t, "profile", "init")
	assert.Contains(t, e.ok(t, "item", "add", "milk"), "Added item 0")
	assert.Contains(t, e.ok(t, "item", "add", "eggs"), "Added item 1")
	e.ok(t, "item", "mark", "0")
	e.ok(t, "item", "delete", "0")

	var items []itemView
	require.NoError(t, json.Unmarshal([]byte(e.ok(t, "item", "list", "--json")), &items))
	require.Len(t, items, 1)
	assert.Equal(t, uint64(1), items[0].Index)
	assert.Equal(t, "eggs", items[0].Payload)
	assert.False(t, items[0].Done)

	var p types.Profile
	require.NoError(t, json.Unmarshal([]byte(e.ok(t, "profile", "show", "--json")), &p))
	assert.Equal(t, uint64(2), p.NextIndex)
	assert.Equal(t, uint64(1), p.LiveCount)

	// The deleted index is not reused.
	var r types.Receipt
	require.NoError(t, json.Unmarshal([]byte(e.ok(t, "item", "add", "bread", "--json")), &r))
	assert.Equal(t, types.OpAddItem, r.Operation)
	assert.Equal(t, uint64(2), r.Index)
	assert.NotEmpty(t, r.TxnID)

	out := e.ok(t, "item", "show", "2")
	assert.Contains(t, out, "payload: bread")
}

func TestItemListText(t *testing.T) {
	e := initialized(t)
	assert.Contains(t, e.ok(t, "profile", "init"), "Profile initialized")
	e.ok(t, "item", "add", "milk")
	e.ok(t, "item", "mark", "0")

	out := e.ok(t, "item", "list")
	assert.Contains(t, out, "INDEX")
	assert.Contains(t, out, "milk")
	assert.Contains(t, out, "Total: 1 item(s)")
}

func TestUserErrors(t *testing.T) {
	e := initialized(t)
	e.ok(t, "profile", "init")
	e.ok(t, "item", "add", "milk")
	e.ok(t, "item", "mark", "0")

	other := types.Identity{0x99}.String()
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"profile exists", []string{"profile", "init"}, "already occupied"},
		{"already marked", []string{"item", "mark", "0"}, "already marked"},
		{"missing item", []string{"item", "delete", "7"}, "not found"},
		{"bad index", []string{"item", "mark", "x"}, "invalid index"},
		{"claimed owner differs", []string{"item", "add", "eggs", "--owner", other}, "not the owner"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errOut, code := e.run(t, tt.args...)
			assert.Equal(t, exitUserError, code)
			assert.Contains(t, strings.ToLower(errOut), tt.want)
		})
	}
}

func TestSystemErrorOnBadConfig(t *testing.T) {
	e := initialized(t)
	t.Setenv("LARDER_INDEX_WIDTH", "3")

	_, _, code := e.run(t, "profile", "show")
	assert.Equal(t, exitSysError, code)
}

func TestCommandsNeedIdentity(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.MkdirAll(e.configDir, 0o755))

	_, errOut, code := e.run(t, "profile", "init")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "larder init")
}

func TestAddress(t *testing.T) {
	e := initialized(t)

	first := e.ok(t, "address", "item", "3")
	assert.Equal(t, first, e.ok(t, "address", "item", "3"))
	assert.NotEqual(t, first, e.ok(t, "address", "item", "4"))

	other := types.Identity{0x42}.String()
	var got struct {
		Owner   types.Identity `json:"owner"`
		Address types.Address  `json:"address"`
	}
	require.NoError(t, json.Unmarshal([]byte(e.ok(t, "address", "profile", "--owner", other, "--json")), &got))
	assert.Equal(t, other, got.Owner.String())
	assert.False(t, got.Address == types.Address{})

	_, _, code := e.run(t, "address", "item", "256")
	assert.Equal(t, exitUserError, code)
}
