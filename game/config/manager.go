package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/marsmission/game/engine"
)

var (
	ErrConfigNotFound = errors.New("map not found")
	ErrInvalidConfig  = errors.New("invalid map")
)

const (
	FallbackMapName = "generated"
	FallbackMapSize = 20
	FallbackMapSeed = 2021
)

// MapInfo describes a map file available in the map directory
type MapInfo struct {
	Filename    string `json:"filename"`
	MapID       string `json:"map_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// Manager handles map file loading and caching. It is the MapProvider the
// session registry loads its boards from.
type Manager struct {
	mapDir  string
	configs map[string]*engine.MapConfig
	boards  []*engine.Board
	mu      sync.RWMutex
}

// NewManager creates a new map manager for mapDir
func NewManager(mapDir string) (*Manager, error) {
	info, err := os.Stat(mapDir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("map directory does not exist: %s", mapDir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat map directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("map path is not a directory: %s", mapDir)
	}

	return &Manager{
		mapDir:  mapDir,
		configs: make(map[string]*engine.MapConfig),
	}, nil
}

// LoadConfig loads a map configuration by name
func (m *Manager) LoadConfig(name string) (*engine.MapConfig, error) {
	name = strings.TrimSuffix(name, ".json")

	m.mu.RLock()
	if config, exists := m.configs[name]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadConfigLocked(name)
}

// loadConfigLocked reads and caches a map file. The caller holds m.mu.
func (m *Manager) loadConfigLocked(name string) (*engine.MapConfig, error) {
	// Double-check after acquiring write lock
	if config, exists := m.configs[name]; exists {
		return config, nil
	}

	config, err := engine.LoadMapConfig(filepath.Join(m.mapDir, name+".json"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrConfigNotFound
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return nil, fmt.Errorf("failed to read map file: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	m.configs[name] = config
	return config, nil
}

// mapNames returns the names of every map file, sorted by filename
func (m *Manager) mapNames() ([]string, error) {
	entries, err := os.ReadDir(m.mapDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read map directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// ListConfigs returns information about every valid map in the directory.
// Invalid files are skipped.
func (m *Manager) ListConfigs() ([]*MapInfo, error) {
	names, err := m.mapNames()
	if err != nil {
		return nil, err
	}

	var infos []*MapInfo
	for _, name := range names {
		config, err := m.LoadConfig(name)
		if err != nil {
			continue
		}
		infos = append(infos, &MapInfo{
			Filename:    name + ".json",
			MapID:       name,
			Name:        config.Name,
			Description: config.Description,
			Width:       len(config.Difficulties[0]),
			Height:      len(config.Difficulties),
		})
	}
	return infos, nil
}

// LoadMaps builds a board for every map file, in filename order. A directory
// without map files yields a single generated map. Any invalid file fails the
// whole load, so a bad deployment is caught at startup.
func (m *Manager) LoadMaps() ([]*engine.Board, error) {
	m.mu.RLock()
	if m.boards != nil {
		boards := append([]*engine.Board(nil), m.boards...)
		m.mu.RUnlock()
		return boards, nil
	}
	m.mu.RUnlock()

	names, err := m.mapNames()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.boards != nil {
		return append([]*engine.Board(nil), m.boards...), nil
	}

	var boards []*engine.Board
	for _, name := range names {
		config, err := m.loadConfigLocked(name)
		if err != nil {
			return nil, err
		}
		board, err := engine.BuildBoard(config)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.json: %v", ErrInvalidConfig, name, err)
		}
		boards = append(boards, board)
	}

	if len(boards) == 0 {
		board, err := engine.BuildBoard(FallbackMapConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to build fallback map: %w", err)
		}
		boards = append(boards, board)
	}

	m.boards = boards
	return append([]*engine.Board(nil), boards...), nil
}

// FallbackMapConfig returns the generated map used when no map files exist
func FallbackMapConfig() *engine.MapConfig {
	return engine.GenerateMapConfig(FallbackMapName, FallbackMapSize, FallbackMapSize, FallbackMapSeed)
}
