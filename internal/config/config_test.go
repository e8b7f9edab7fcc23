package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load(context.Background(), "")
	assert.Nil(t, err)
	assert.EqualValues(t, "gemini-2.0-flash", cfg.Model)
	assert.EqualValues(t, 15, cfg.MaxTurns)
	assert.EqualValues(t, time.Second, cfg.DelayDuration())
	assert.EqualValues(t, 2*time.Minute, cfg.StallDuration())

	// missing file also yields defaults
	cfg, err = Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Nil(t, err)
	assert.EqualValues(t, 15, cfg.MaxTurns)
}

func TestLoad_Document(t *testing.T) {
	t.Parallel()
	location := filepath.Join(t.TempDir(), "config.yaml")
	document := `root: /var/lib/conversim
model: gemini-1.5-pro
maxTurns: 5
delay: 250ms
stallTimeout: 30s
`
	err := os.WriteFile(location, []byte(document), 0o644)
	assert.Nil(t, err)

	cfg, err := Load(context.Background(), location)
	assert.Nil(t, err)
	assert.EqualValues(t, "/var/lib/conversim", cfg.Root)
	assert.EqualValues(t, "gemini-1.5-pro", cfg.Model)
	assert.EqualValues(t, 5, cfg.MaxTurns)
	assert.EqualValues(t, 250*time.Millisecond, cfg.DelayDuration())
	assert.EqualValues(t, 30*time.Second, cfg.StallDuration())
}

func TestConfig_DurationFallbacks(t *testing.T) {
	t.Parallel()
	cfg := &Config{Delay: "soon", StallTimeout: "-5s"}
	cfg.Init()
	assert.EqualValues(t, time.Second, cfg.DelayDuration(), "unparseable delay falls back")
	assert.EqualValues(t, 2*time.Minute, cfg.StallDuration(), "non-positive timeout falls back")
}
