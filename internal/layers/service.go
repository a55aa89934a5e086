package layers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/mixnode/internal/events"
	"github.com/smazurov/mixnode/internal/logging"
	"github.com/smazurov/mixnode/internal/mixer"
	"github.com/smazurov/mixnode/internal/sources"
)

// ErrLayerNotFound is returned for operations on unknown layer IDs.
var ErrLayerNotFound = errors.New("layers: layer not found")

// ErrLayerExists is returned when creating a layer whose ID is taken.
var ErrLayerExists = errors.New("layers: layer already exists")

// ServiceOptions wires the layer service's collaborators.
type ServiceOptions struct {
	Store    Store
	Mixer    *mixer.Mixer
	EventBus *events.Bus
}

// runningLayer is the live side of an enabled layer: its mixer pad and the
// goroutine feeding it.
type runningLayer struct {
	pad    *mixer.Pad
	cancel context.CancelFunc
	done   chan struct{}
}

// Service keeps the mixer's inputs in sync with the persisted layer specs.
type Service struct {
	log   *slog.Logger
	store Store
	mix   *mixer.Mixer
	bus   *events.Bus

	mu      sync.Mutex
	running map[string]*runningLayer
}

// NewService creates the layer service. Call LoadFromConfig to bring up the
// persisted composition.
func NewService(opts *ServiceOptions) *Service {
	return &Service{
		log:     logging.GetLogger("layers"),
		store:   opts.Store,
		mix:     opts.Mixer,
		bus:     opts.EventBus,
		running: make(map[string]*runningLayer),
	}
}

// LoadFromConfig loads the store and starts every enabled layer. Layers
// that fail to start are logged and skipped so one bad spec does not take
// the composition down.
func (s *Service) LoadFromConfig() error {
	if err := s.store.Load(); err != nil {
		return err
	}
	for id, spec := range s.store.GetAllLayers() {
		if !spec.Enabled {
			continue
		}
		if err := s.start(spec); err != nil {
			s.log.Warn("failed to start layer", "layer_id", id, "error", err)
		}
	}
	return nil
}

// List returns all persisted layers.
func (s *Service) List() map[string]LayerSpec {
	return s.store.GetAllLayers()
}

// Get returns one layer by ID.
func (s *Service) Get(id string) (LayerSpec, bool) {
	return s.store.GetLayer(id)
}

// Create validates, persists and starts a new layer.
func (s *Service) Create(spec LayerSpec) error {
	if _, exists := s.store.GetLayer(spec.ID); exists {
		return fmt.Errorf("%w: %s", ErrLayerExists, spec.ID)
	}
	if _, err := spec.Validate(); err != nil {
		return err
	}
	if spec.Name == "" {
		spec.Name = spec.ID
	}
	now := time.Now()
	spec.CreatedAt = now
	spec.UpdatedAt = now

	if err := s.store.AddLayer(spec); err != nil {
		return err
	}
	if spec.Enabled {
		if err := s.start(spec); err != nil {
			return err
		}
	}
	s.publish(events.LayerCreatedEvent{LayerID: spec.ID, Action: "created", Timestamp: timestamp()})
	return nil
}

// Update applies a changed spec. Placement changes reach the running mixer
// pad directly; changes to the produced stream restart the layer's source.
func (s *Service) Update(id string, spec LayerSpec) error {
	existing, exists := s.store.GetLayer(id)
	if !exists {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	spec.ID = id
	if spec.Name == "" {
		spec.Name = existing.Name
	}
	if _, err := spec.Validate(); err != nil {
		return err
	}
	spec.CreatedAt = existing.CreatedAt
	spec.UpdatedAt = time.Now()

	if err := s.store.UpdateLayer(id, spec); err != nil {
		return err
	}

	if spec.sourceEquals(existing) {
		s.applyPlacement(id, spec)
	} else {
		s.stop(id)
		if spec.Enabled {
			if err := s.start(spec); err != nil {
				return err
			}
		}
	}
	s.publish(events.LayerUpdatedEvent{LayerID: id, Action: "updated", Timestamp: timestamp()})
	return nil
}

// Delete stops and removes a layer.
func (s *Service) Delete(id string) error {
	if _, exists := s.store.GetLayer(id); !exists {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	s.stop(id)
	if err := s.store.RemoveLayer(id); err != nil {
		return err
	}
	s.publish(events.LayerDeletedEvent{LayerID: id, Action: "deleted", Timestamp: timestamp()})
	return nil
}

// ApplySnapshot reconciles the running composition against a fresh set of
// specs, used when the layers file changes on disk.
func (s *Service) ApplySnapshot(specs map[string]LayerSpec) {
	current := s.store.GetAllLayers()

	for id := range current {
		if _, keep := specs[id]; !keep {
			if err := s.Delete(id); err != nil {
				s.log.Warn("reload: failed to delete layer", "layer_id", id, "error", err)
			}
		}
	}
	for id, spec := range specs {
		if _, exists := current[id]; exists {
			if err := s.Update(id, spec); err != nil {
				s.log.Warn("reload: failed to update layer", "layer_id", id, "error", err)
			}
		} else {
			spec.ID = id
			if err := s.Create(spec); err != nil {
				s.log.Warn("reload: failed to create layer", "layer_id", id, "error", err)
			}
		}
	}
}

// StopAll stops every running layer, detaching them from the mixer.
func (s *Service) StopAll() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.running))
	for id := range s.running {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.stop(id)
	}
}

func (s *Service) start(spec LayerSpec) error {
	cfg, err := spec.Validate()
	if err != nil {
		return err
	}
	src, err := sources.NewPattern(cfg)
	if err != nil {
		return err
	}

	pad := s.mix.AttachInput(spec.ID)
	s.mix.SetPosition(pad, spec.XPos, spec.YPos)
	s.mix.SetZOrder(pad, spec.ZOrder)
	s.mix.SetAlpha(pad, spec.Alpha)
	if err := s.mix.SetInputFormat(pad, src.Info()); err != nil {
		s.mix.DetachInput(pad)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	rl := &runningLayer{pad: pad, cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	s.running[spec.ID] = rl
	s.mu.Unlock()

	go func() {
		defer close(rl.done)
		if runErr := src.Run(ctx, pad.Queue()); runErr != nil && !errors.Is(runErr, context.Canceled) {
			s.log.Error("layer source stopped", "layer_id", spec.ID, "error", runErr)
		}
	}()

	s.log.Info("layer started", "layer_id", spec.ID, "pattern", spec.Pattern, "format", spec.Format)
	return nil
}

func (s *Service) stop(id string) {
	s.mu.Lock()
	rl, ok := s.running[id]
	if ok {
		delete(s.running, id)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	rl.cancel()
	<-rl.done
	s.mix.DetachInput(rl.pad)
	s.log.Info("layer stopped", "layer_id", id)
}

func (s *Service) applyPlacement(id string, spec LayerSpec) {
	s.mu.Lock()
	rl, ok := s.running[id]
	s.mu.Unlock()
	if !ok {
		return
	}
	s.mix.SetPosition(rl.pad, spec.XPos, spec.YPos)
	s.mix.SetZOrder(rl.pad, spec.ZOrder)
	s.mix.SetAlpha(rl.pad, spec.Alpha)
}

func (s *Service) publish(ev events.Event) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
