package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ClayCatalog/internal/catalog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clay.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
addr = "127.0.0.1:4100"
tick = "250ms"
default_segment = "Town"
start_room = "town.3"

[relocation]
queue_limit = 5
restricted_room_segments = ["area", "Jail"]
reserved_objects = ["misc.349", "town:7"]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:4100", cfg.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.Tick)
	assert.Equal(t, "town", cfg.DefaultSegment)
	assert.Equal(t, catalog.New("town", 3), cfg.StartRoom)
	assert.Equal(t, "data", cfg.DataDir, "unset keys keep defaults")

	rules := cfg.Relocation
	assert.Equal(t, 5, rules.QueueLimit)
	assert.Equal(t, catalog.MaxPosition, rules.MaxPosition)
	assert.Equal(t, []string{"area", "jail"}, rules.Restricted[catalog.KindRoom])
	assert.Equal(t, []catalog.Ref{catalog.New("misc", 349), catalog.New("town", 7)}, rules.Reserved[catalog.KindObject])
	assert.Equal(t, []catalog.Ref{catalog.New("test", 1)}, rules.Reserved[catalog.KindRoom])
}

func TestLoadRejectsBadValues(t *testing.T) {
	for name, body := range map[string]string{
		"tick":        `tick = "soon"`,
		"queue limit": "[relocation]\nqueue_limit = 0",
		"reserved":    "[relocation]\nreserved_rooms = [\"misc\"]",
		"start room":  `start_room = "misc"`,
		"syntax":      `addr = `,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestDefaultsMatchStockRules(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 100, cfg.Relocation.QueueLimit)
	assert.Contains(t, cfg.Relocation.Restricted[catalog.KindRoom], "shop")
	assert.Equal(t, catalog.New("misc", 1), cfg.StartRoom)
}
