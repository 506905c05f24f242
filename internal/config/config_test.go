package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, home, content string) {
	t.Helper()
	path := Path(home)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	cfg, err := load(home)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".claude", "projects"), cfg.Input)
	assert.Equal(t, "Claude Code Conversations", cfg.Title)
	assert.Equal(t, 15, cfg.PageSize)
	assert.Equal(t, 4, cfg.Workers)
	assert.True(t, cfg.Cache)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoad_FileThenEnv(t *testing.T) {
	home := t.TempDir()
	writeConfig(t, home, `
input = "~/logs"
title = "From file"
page_size = 10
cache = false
log_level = "debug"
`)
	t.Setenv("AISX_TITLE", "From env")
	t.Setenv("AISX_WORKERS", "8")

	cfg, err := load(home)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "logs"), cfg.Input)
	assert.Equal(t, "From env", cfg.Title)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, 8, cfg.Workers)
	assert.False(t, cfg.Cache)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "bad toml", file: "page_size = ["},
		{name: "zero page size", file: "page_size = 0"},
		{name: "bad env number", env: map[string]string{"AISX_PAGE_SIZE": "many"}},
		{name: "bad level", env: map[string]string{"AISX_LOG_LEVEL": "loud"}},
		{name: "negative workers", env: map[string]string{"AISX_WORKERS": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := t.TempDir()
			if tt.file != "" {
				writeConfig(t, home, tt.file)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := load(home)
			assert.Error(t, err)
		})
	}
}

func TestExpandHome(t *testing.T) {
	assert.Equal(t, "/h", expandHome("~", "/h"))
	assert.Equal(t, filepath.Join("/h", "x", "y"), expandHome("~/x/y", "/h"))
	assert.Equal(t, "/abs", expandHome("/abs", "/h"))
	assert.Equal(t, "~user/x", expandHome("~user/x", "/h"))
}
