package layers

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// Store persists layer specifications.
type Store interface {
	Load() error
	Save() error
	AddLayer(layer LayerSpec) error
	UpdateLayer(id string, updates LayerSpec) error
	RemoveLayer(id string) error
	GetLayer(id string) (LayerSpec, bool)
	GetAllLayers() map[string]LayerSpec
}

// config represents the complete layers configuration file for TOML
// marshaling.
type config struct {
	Version int                  `toml:"version" json:"version"`
	Layers  map[string]LayerSpec `toml:"layers" json:"layers"`
}

// tomlStore implements Store using TOML file storage.
type tomlStore struct {
	mu         sync.Mutex
	configPath string
	config     *config
}

// NewTOML creates a new TOML-based store.
func NewTOML(configPath string) Store {
	if configPath == "" {
		configPath = "layers.toml"
	}
	return &tomlStore{
		configPath: configPath,
		config: &config{
			Version: 1,
			Layers:  make(map[string]LayerSpec),
		},
	}
}

// Load loads the layers configuration from file. A missing file is an empty
// composition, not an error.
func (s *tomlStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.configPath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return fmt.Errorf("failed to read layers config: %w", err)
	}
	if unmarshalErr := toml.Unmarshal(data, s.config); unmarshalErr != nil {
		return fmt.Errorf("failed to parse layers config: %w", unmarshalErr)
	}

	if s.config.Layers == nil {
		s.config.Layers = make(map[string]LayerSpec)
	}
	if s.config.Version == 0 {
		s.config.Version = 1
	}
	return nil
}

// Save saves the layers configuration to file.
func (s *tomlStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *tomlStore) saveLocked() error {
	dir := filepath.Dir(s.configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(s.config)
	if err != nil {
		return fmt.Errorf("failed to marshal layers config: %w", err)
	}
	if writeErr := os.WriteFile(s.configPath, data, 0o644); writeErr != nil {
		return fmt.Errorf("failed to write layers config: %w", writeErr)
	}
	return nil
}

// AddLayer adds a new layer to the configuration.
func (s *tomlStore) AddLayer(layer LayerSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.Layers[layer.ID] = layer
	return s.saveLocked()
}

// UpdateLayer updates an existing layer configuration.
func (s *tomlStore) UpdateLayer(id string, updates LayerSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.Layers[id] = updates
	return s.saveLocked()
}

// RemoveLayer removes a layer from the configuration.
func (s *tomlStore) RemoveLayer(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.config.Layers, id)
	return s.saveLocked()
}

// GetLayer retrieves a layer by ID.
func (s *tomlStore) GetLayer(id string) (LayerSpec, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	layer, exists := s.config.Layers[id]
	return layer, exists
}

// GetAllLayers returns a copy of all layers.
func (s *tomlStore) GetAllLayers() map[string]LayerSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]LayerSpec, len(s.config.Layers))
	for id, l := range s.config.Layers {
		out[id] = l
	}
	return out
}
