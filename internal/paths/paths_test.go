package paths

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlatform swaps the platform lookups for the duration of a test.
func fakePlatform(t *testing.T, goos, cwd, home string) {
	t.Helper()
	saved := platform
	t.Cleanup(func() { platform = saved })

	platform.goos = goos
	platform.getwd = func() (string, error) { return cwd, nil }
	platform.homeDir = func() (string, error) { return home, nil }
	platform.userConfigDir = func() (string, error) {
		return filepath.Join(home, "Library", "Application Support"), nil
	}
}

func TestDefaultDirs_Linux(t *testing.T) {
	fakePlatform(t, "linux", t.TempDir(), "/home/u")

	t.Run("uses XDG variables when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
		t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-config/larder", got)

		got, err = DefaultDataDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-data/larder", got)
	})

	t.Run("falls back to home when XDG unset", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("XDG_DATA_HOME", "")

		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/home/u/.config/larder", got)

		got, err = DefaultDataDir()
		require.NoError(t, err)
		assert.Equal(t, "/home/u/.local/share/larder", got)
	})
}

func TestDefaultDirs_Darwin(t *testing.T) {
	fakePlatform(t, "darwin", t.TempDir(), "/Users/u")
	t.Setenv("XDG_CONFIG_HOME", "/ignored")

	want := "/Users/u/Library/Application Support/larder"
	got, err := DefaultConfigDir()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = DefaultDataDir()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDefaultDirs_HomeError(t *testing.T) {
	fakePlatform(t, "linux", t.TempDir(), "")
	platform.homeDir = func() (string, error) { return "", errors.New("no home") }
	t.Setenv("XDG_CONFIG_HOME", "")

	_, err := DefaultConfigDir()
	assert.Error(t, err)
}

func TestResolveConfigDir(t *testing.T) {
	cwd := t.TempDir()
	fakePlatform(t, "linux", cwd, "/home/u")
	t.Setenv("XDG_CONFIG_HOME", "")

	tests := []struct {
		name   string
		flag   string
		envVal string
		local  bool
		want   string
	}{
		{"flag wins over env", "/explicit/config", "/env/config", true, "/explicit/config"},
		{"env wins when flag empty", "", "/env/config", true, "/env/config"},
		{"local dir when present", "", "", true, filepath.Join(cwd, LocalConfigDirName)},
		{"platform default otherwise", "", "", false, "/home/u/.config/larder"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := filepath.Join(cwd, LocalConfigDirName)
			os.RemoveAll(local)
			if tt.local {
				require.NoError(t, os.Mkdir(local, 0o755))
			}
			t.Setenv(EnvConfigDir, tt.envVal)

			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	cwd := t.TempDir()
	fakePlatform(t, "linux", cwd, "/home/u")
	t.Setenv("XDG_DATA_HOME", "")

	tests := []struct {
		name        string
		flag        string
		envVal      string
		configValue string
		local       bool
		want        string
	}{
		{"flag wins over all", "/flag/data", "/env/data", "/config/data", true, "/flag/data"},
		{"env wins over config", "", "/env/data", "/config/data", true, "/env/data"},
		{"config value next", "", "", "/config/data", true, "/config/data"},
		{"local dir when present", "", "", "", true, filepath.Join(cwd, LocalDataDirName)},
		{"platform default otherwise", "", "", "", false, "/home/u/.local/share/larder"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := filepath.Join(cwd, LocalDataDirName)
			os.RemoveAll(local)
			if tt.local {
				require.NoError(t, os.Mkdir(local, 0o755))
			}
			t.Setenv(EnvDataDir, tt.envVal)

			got, err := ResolveDataDir(tt.flag, tt.configValue)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_RelativeBecomesAbsolute(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	t.Setenv(EnvDataDir, "")

	got, err := ResolveConfigDir("relative/path")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)

	got, err = ResolveDataDir("", "relative/config")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
}

func TestResolveKeyFile(t *testing.T) {
	assert.Equal(t, "/cfg/identity.key", ResolveKeyFile("/cfg", ""))
	assert.Equal(t, "/keys/me.key", ResolveKeyFile("/cfg", "/keys/me.key"))
	assert.Equal(t, "/cfg/keys/me.key", ResolveKeyFile("/cfg", "keys/me.key"))
}
