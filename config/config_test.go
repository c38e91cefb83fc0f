package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XRAY_CONFIG", "")
	t.Setenv("ANALYSIS_TIMEOUT", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DefaultAnalysisTimeout, cfg.AnalysisTimeout)
	require.Equal(t, DefaultChatTimeout, cfg.ChatTimeout)
	require.Equal(t, int64(DefaultMaxUploadBytes), cfg.MaxUploadBytes)
	require.Equal(t, DefaultPort, cfg.Port)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xray.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
gemini_model: gemini-test
chat_timeout: 5s
analysis_timeout: 40s
palette: ["#112233"]
upload_dir: /tmp/uploads
`), 0o644))

	t.Setenv("XRAY_CONFIG", path)
	t.Setenv("ANALYSIS_TIMEOUT", "45s")
	t.Setenv("GEMINI_API_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "gemini-test", cfg.GeminiModel)
	require.Equal(t, 5*time.Second, cfg.ChatTimeout)
	require.Equal(t, 45*time.Second, cfg.AnalysisTimeout)
	require.Equal(t, []string{"#112233"}, cfg.Palette)
	require.Equal(t, "/tmp/uploads", cfg.UploadDir)
	require.Equal(t, "secret", cfg.GeminiAPIKey)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("XRAY_CONFIG", "")
	t.Setenv("CHAT_TIMEOUT", "soon")

	_, err := Load()
	require.ErrorContains(t, err, "CHAT_TIMEOUT")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.ChatTimeout = 0
	require.Error(t, cfg.Validate())
}

func TestSlogLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "debug"
	require.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	cfg.LogLevel = "nonsense"
	require.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}
