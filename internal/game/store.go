package game

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	goccy "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"ClayCatalog/internal/catalog"
)

// Partition names one directory of records in the store.
type Partition string

const (
	PartitionPlayers  Partition = "players"
	PartitionBackups  Partition = "backups"
	PartitionRooms    Partition = "rooms"
	PartitionMonsters Partition = "monsters"
	PartitionObjects  Partition = "objects"

	metadataFile = "world.yaml"
)

var ErrNotFound = errors.New("record not found")

// SaveObserver is told about every record written through the store.
type SaveObserver func(partition Partition, key string, record catalog.Relocatable)

// Store keeps one JSON file per record under a root directory. Writes go to
// a temp file and are renamed into place, so readers never see partial
// records.
type Store struct {
	root   string
	logger zerolog.Logger

	mu        sync.RWMutex
	observers []SaveObserver
	fault     func(Partition, string) error
}

// NewStore prepares the directory layout under root.
func NewStore(root string, logger zerolog.Logger) (*Store, error) {
	for _, p := range []Partition{PartitionPlayers, PartitionBackups, PartitionRooms, PartitionMonsters, PartitionObjects} {
		if err := os.MkdirAll(filepath.Join(root, string(p)), 0o755); err != nil {
			return nil, fmt.Errorf("create %s directory: %w", p, err)
		}
	}
	return &Store{root: root, logger: logger.With().Str("component", "store").Logger()}, nil
}

// Root returns the directory the store writes under.
func (s *Store) Root() string { return s.root }

// OnSave registers an observer for successful writes.
func (s *Store) OnSave(fn SaveObserver) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// SetSaveFaultForTest makes writes fail whenever fn returns an error.
func (s *Store) SetSaveFaultForTest(fn func(Partition, string) error) {
	s.mu.Lock()
	s.fault = fn
	s.mu.Unlock()
}

func kindPartition(kind catalog.Kind) (Partition, string, bool) {
	switch kind {
	case catalog.KindRoom:
		return PartitionRooms, "r", true
	case catalog.KindMonster:
		return PartitionMonsters, "m", true
	case catalog.KindObject:
		return PartitionObjects, "o", true
	}
	return "", "", false
}

func (s *Store) refPath(kind catalog.Kind, ref catalog.Ref) (string, error) {
	partition, prefix, ok := kindPartition(kind)
	if !ok || !ref.Resolved() {
		return "", fmt.Errorf("no record path for %s %s", kind, ref)
	}
	return filepath.Join(s.root, string(partition), ref.Segment, fmt.Sprintf("%s%05d.json", prefix, ref.ID)), nil
}

func (s *Store) playerPath(name string, backup bool) string {
	partition := PartitionPlayers
	if backup {
		partition = PartitionBackups
	}
	return filepath.Join(s.root, string(partition), strings.ToLower(name)+".json")
}

// Exists reports whether a record occupies ref.
func (s *Store) Exists(kind catalog.Kind, ref catalog.Ref) bool {
	path, err := s.refPath(kind, ref)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Remove deletes the record at ref. Missing records are not an error.
func (s *Store) Remove(kind catalog.Kind, ref catalog.Ref) error {
	path, err := s.refPath(kind, ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s %s: %w", kind, ref, err)
	}
	return nil
}

func (s *Store) LoadRoom(ref catalog.Ref) (*Room, error) {
	return loadRef[Room](s, catalog.KindRoom, ref)
}

func (s *Store) SaveRoom(room *Room) error {
	return s.saveRef(catalog.KindRoom, room.Ref, room)
}

func (s *Store) LoadMonster(ref catalog.Ref) (*Monster, error) {
	return loadRef[Monster](s, catalog.KindMonster, ref)
}

func (s *Store) SaveMonster(monster *Monster) error {
	return s.saveRef(catalog.KindMonster, monster.Ref, monster)
}

func (s *Store) LoadObject(ref catalog.Ref) (*Object, error) {
	return loadRef[Object](s, catalog.KindObject, ref)
}

func (s *Store) SaveObject(object *Object) error {
	return s.saveRef(catalog.KindObject, object.Ref, object)
}

// LoadPlayer reads a player record, or its backup copy.
func (s *Store) LoadPlayer(name string, backup bool) (*PlayerRecord, error) {
	return readRecord[PlayerRecord](s.playerPath(name, backup))
}

// SavePlayer writes a player record, or its backup copy.
func (s *Store) SavePlayer(record *PlayerRecord, backup bool) error {
	partition := PartitionPlayers
	if backup {
		partition = PartitionBackups
	}
	return s.write(partition, record.Name, s.playerPath(record.Name, backup), record)
}

func loadRef[T any](s *Store, kind catalog.Kind, ref catalog.Ref) (*T, error) {
	path, err := s.refPath(kind, ref)
	if err != nil {
		return nil, err
	}
	return readRecord[T](path)
}

func (s *Store) saveRef(kind catalog.Kind, ref catalog.Ref, record catalog.Relocatable) error {
	path, err := s.refPath(kind, ref)
	if err != nil {
		return err
	}
	partition, _, _ := kindPartition(kind)
	return s.write(partition, ref.String(), path, record)
}

func readRecord[T any](path string) (*T, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var record T
	if err := goccy.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &record, nil
}

func (s *Store) write(partition Partition, key, path string, record catalog.Relocatable) error {
	s.mu.RLock()
	fault := s.fault
	s.mu.RUnlock()
	if fault != nil {
		if err := fault(partition, key); err != nil {
			return fmt.Errorf("save %s %s: %w", partition, key, err)
		}
	}
	data, err := goccy.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", partition, key, err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("save %s %s: %w", partition, key, err)
	}

	s.mu.RLock()
	observers := append([]SaveObserver(nil), s.observers...)
	s.mu.RUnlock()
	for _, observe := range observers {
		observe(partition, key, record)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "record-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// WalkPlayers visits every player record (or backup) in name order.
func (s *Store) WalkPlayers(ctx context.Context, backup bool, fn func(*PlayerRecord) error) error {
	partition := PartitionPlayers
	if backup {
		partition = PartitionBackups
	}
	return walkRecords(ctx, s, partition, fn)
}

func (s *Store) WalkRooms(ctx context.Context, fn func(*Room) error) error {
	return walkRecords(ctx, s, PartitionRooms, fn)
}

func (s *Store) WalkMonsters(ctx context.Context, fn func(*Monster) error) error {
	return walkRecords(ctx, s, PartitionMonsters, fn)
}

func (s *Store) WalkObjects(ctx context.Context, fn func(*Object) error) error {
	return walkRecords(ctx, s, PartitionObjects, fn)
}

// walkRecords decodes every record in a partition. Unreadable records are
// logged and skipped; cancellation stops the walk.
func walkRecords[T any](ctx context.Context, s *Store, partition Partition, fn func(*T) error) error {
	var paths []string
	root := filepath.Join(s.root, string(partition))
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".json") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", partition, err)
	}
	sort.Strings(paths)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		record, err := readRecord[T](path)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				s.logger.Warn().Err(err).Str("partition", string(partition)).Msg("skipping unreadable record")
			}
			continue
		}
		if err := fn(record); err != nil {
			return err
		}
	}
	return nil
}

// LoadMetadata reads world.yaml. A missing file yields empty metadata.
func (s *Store) LoadMetadata() (*Metadata, error) {
	meta := &Metadata{}
	data, err := os.ReadFile(filepath.Join(s.root, metadataFile))
	if errors.Is(err, os.ErrNotExist) {
		return meta, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read world metadata: %w", err)
	}
	if err := yaml.Unmarshal(data, meta); err != nil {
		return nil, fmt.Errorf("decode world metadata: %w", err)
	}
	return meta, nil
}

// SaveMetadata writes world.yaml.
func (s *Store) SaveMetadata(meta *Metadata) error {
	s.mu.RLock()
	fault := s.fault
	s.mu.RUnlock()
	if fault != nil {
		if err := fault("", metadataFile); err != nil {
			return fmt.Errorf("save world metadata: %w", err)
		}
	}
	data, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode world metadata: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(s.root, metadataFile), data); err != nil {
		return fmt.Errorf("save world metadata: %w", err)
	}
	return nil
}
