// Package config loads the server configuration from a TOML file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"ClayCatalog/internal/catalog"
	"ClayCatalog/internal/relocate"
)

// Config is the resolved server configuration.
type Config struct {
	Addr           string
	DataDir        string
	Accounts       string
	Admin          string
	Tick           time.Duration
	DefaultSegment string
	StartRoom      catalog.Ref
	LogLevel       string
	Relocation     relocate.Rules
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Addr:           ":4000",
		DataDir:        "data",
		Accounts:       "data/accounts.json",
		Admin:          "admin",
		Tick:           100 * time.Millisecond,
		DefaultSegment: "misc",
		StartRoom:      catalog.New("misc", 1),
		Relocation:     relocate.DefaultRules(),
	}
}

type fileConfig struct {
	Addr           string         `toml:"addr"`
	DataDir        string         `toml:"data_dir"`
	Accounts       string         `toml:"accounts"`
	Admin          string         `toml:"admin"`
	Tick           string         `toml:"tick"`
	DefaultSegment string         `toml:"default_segment"`
	StartRoom      string         `toml:"start_room"`
	LogLevel       string         `toml:"log_level"`
	Relocation     relocationFile `toml:"relocation"`
}

type relocationFile struct {
	QueueLimit         int      `toml:"queue_limit"`
	MaxPosition        int      `toml:"max_position"`
	StreamBuffer       int      `toml:"stream_buffer"`
	RestrictedRooms    []string `toml:"restricted_room_segments"`
	RestrictedMonsters []string `toml:"restricted_monster_segments"`
	RestrictedObjects  []string `toml:"restricted_object_segments"`
	ReservedRooms      []string `toml:"reserved_rooms"`
	ReservedMonsters   []string `toml:"reserved_monsters"`
	ReservedObjects    []string `toml:"reserved_objects"`
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	setString := func(key string, value string, dst *string) {
		if meta.IsDefined(key) {
			if v := strings.TrimSpace(value); v != "" {
				*dst = v
			}
		}
	}
	setString("addr", raw.Addr, &cfg.Addr)
	setString("data_dir", raw.DataDir, &cfg.DataDir)
	setString("accounts", raw.Accounts, &cfg.Accounts)
	setString("admin", raw.Admin, &cfg.Admin)
	setString("log_level", raw.LogLevel, &cfg.LogLevel)

	if meta.IsDefined("default_segment") {
		segment := catalog.NormalizeSegment(raw.DefaultSegment)
		if segment == "" {
			return Config{}, fmt.Errorf("default_segment must not be empty")
		}
		cfg.DefaultSegment = segment
		cfg.StartRoom = catalog.New(segment, cfg.StartRoom.ID)
	}

	if meta.IsDefined("tick") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Tick))
		if err != nil {
			return Config{}, fmt.Errorf("parse tick: %w", err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("tick must be positive, got %s", d)
		}
		cfg.Tick = d
	}

	if meta.IsDefined("start_room") {
		ref, err := catalog.Parse(raw.StartRoom, cfg.DefaultSegment)
		if err != nil || !ref.Resolved() {
			return Config{}, fmt.Errorf("parse start_room %q: want seg.N", raw.StartRoom)
		}
		cfg.StartRoom = ref
	}

	if err := applyRelocation(meta, raw.Relocation, &cfg.Relocation); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyRelocation(meta toml.MetaData, raw relocationFile, rules *relocate.Rules) error {
	defined := func(key string) bool { return meta.IsDefined("relocation", key) }

	if defined("queue_limit") {
		if raw.QueueLimit <= 0 {
			return fmt.Errorf("relocation.queue_limit must be positive")
		}
		rules.QueueLimit = raw.QueueLimit
	}
	if defined("max_position") {
		if raw.MaxPosition <= 1 || raw.MaxPosition > catalog.MaxPosition {
			return fmt.Errorf("relocation.max_position must be between 2 and %d", catalog.MaxPosition)
		}
		rules.MaxPosition = raw.MaxPosition
	}
	if defined("stream_buffer") {
		rules.StreamBuffer = raw.StreamBuffer
	}

	restricted := []struct {
		key  string
		kind catalog.Kind
		list []string
	}{
		{"restricted_room_segments", catalog.KindRoom, raw.RestrictedRooms},
		{"restricted_monster_segments", catalog.KindMonster, raw.RestrictedMonsters},
		{"restricted_object_segments", catalog.KindObject, raw.RestrictedObjects},
	}
	for _, r := range restricted {
		if !defined(r.key) {
			continue
		}
		segments := make([]string, 0, len(r.list))
		for _, s := range r.list {
			if s = catalog.NormalizeSegment(s); s != "" {
				segments = append(segments, s)
			}
		}
		rules.Restricted[r.kind] = segments
	}

	reserved := []struct {
		key  string
		kind catalog.Kind
		list []string
	}{
		{"reserved_rooms", catalog.KindRoom, raw.ReservedRooms},
		{"reserved_monsters", catalog.KindMonster, raw.ReservedMonsters},
		{"reserved_objects", catalog.KindObject, raw.ReservedObjects},
	}
	for _, r := range reserved {
		if !defined(r.key) {
			continue
		}
		refs := make([]catalog.Ref, 0, len(r.list))
		for _, text := range r.list {
			ref, err := catalog.Parse(text, "")
			if err != nil || !ref.Resolved() {
				return fmt.Errorf("relocation.%s: %q is not seg.N", r.key, text)
			}
			refs = append(refs, ref)
		}
		rules.Reserved[r.kind] = refs
	}
	return nil
}
