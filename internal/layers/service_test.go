package layers

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/smazurov/mixnode/internal/events"
	"github.com/smazurov/mixnode/internal/mixer"
	"github.com/smazurov/mixnode/internal/video"
)

type discardSink struct{}

func (discardSink) AllowedCaps() video.Caps      { return video.AnyCaps() }
func (discardSink) PushFrame(*video.Frame) error { return nil }
func (discardSink) PushEvent(mixer.Event)        {}

func newTestService(t *testing.T) (*Service, *mixer.Mixer, *events.Bus) {
	t.Helper()
	mix := mixer.New(mixer.NewCompositor(mixer.BackgroundBlack), discardSink{})
	bus := events.New()
	svc := NewService(&ServiceOptions{
		Store:    NewTOML(filepath.Join(t.TempDir(), "layers.toml")),
		Mixer:    mix,
		EventBus: bus,
	})
	t.Cleanup(svc.StopAll)
	return svc, mix, bus
}

func inputByID(mix *mixer.Mixer, id string) (mixer.InputState, bool) {
	for _, in := range mix.Inputs() {
		if in.ID == id {
			return in, true
		}
	}
	return mixer.InputState{}, false
}

func TestService_CreateStartsEnabledLayer(t *testing.T) {
	svc, mix, bus := newTestService(t)

	created := make(chan events.LayerCreatedEvent, 1)
	defer bus.Subscribe(func(e events.LayerCreatedEvent) { created <- e })()

	spec := testSpec("cam1")
	spec.XPos, spec.YPos = 40, 20
	if err := svc.Create(spec); err != nil {
		t.Fatal(err)
	}

	in, ok := inputByID(mix, "cam1")
	if !ok {
		t.Fatal("layer not attached to the mixer")
	}
	if in.XPos != 40 || in.YPos != 20 {
		t.Errorf("placement = %d/%d, want 40/20", in.XPos, in.YPos)
	}
	if in.Info.Format != video.FormatI420 {
		t.Errorf("input format = %s, want I420", in.Info.Format)
	}

	select {
	case e := <-created:
		if e.LayerID != "cam1" || e.Action != "created" {
			t.Errorf("event = %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Error("creation event not published")
	}
}

func TestService_CreateDisabledStaysInert(t *testing.T) {
	svc, mix, _ := newTestService(t)

	spec := testSpec("standby")
	spec.Enabled = false
	if err := svc.Create(spec); err != nil {
		t.Fatal(err)
	}

	if _, ok := inputByID(mix, "standby"); ok {
		t.Error("disabled layer should not feed the mixer")
	}
	if _, ok := svc.Get("standby"); !ok {
		t.Error("disabled layer must still be persisted")
	}
}

func TestService_CreateDuplicateRejected(t *testing.T) {
	svc, _, _ := newTestService(t)

	if err := svc.Create(testSpec("cam1")); err != nil {
		t.Fatal(err)
	}
	if err := svc.Create(testSpec("cam1")); !errors.Is(err, ErrLayerExists) {
		t.Errorf("err = %v, want ErrLayerExists", err)
	}
}

func TestService_CreateInvalidRejected(t *testing.T) {
	svc, mix, _ := newTestService(t)

	spec := testSpec("bad")
	spec.Pattern = "plasma"
	if err := svc.Create(spec); err == nil {
		t.Fatal("invalid spec accepted")
	}
	if _, ok := svc.Get("bad"); ok {
		t.Error("invalid spec must not be persisted")
	}
	if len(mix.Inputs()) != 0 {
		t.Error("invalid spec must not reach the mixer")
	}
}

func TestService_UpdatePlacementKeepsSource(t *testing.T) {
	svc, mix, _ := newTestService(t)
	if err := svc.Create(testSpec("cam1")); err != nil {
		t.Fatal(err)
	}

	spec, _ := svc.Get("cam1")
	spec.XPos, spec.ZOrder, spec.Alpha = 120, 7, 0.4
	if err := svc.Update("cam1", spec); err != nil {
		t.Fatal(err)
	}

	in, ok := inputByID(mix, "cam1")
	if !ok {
		t.Fatal("layer gone after placement update")
	}
	if in.XPos != 120 || in.ZOrder != 7 || in.Alpha != 0.4 {
		t.Errorf("placement = %+v", in)
	}
}

func TestService_UpdateStreamChangeRestarts(t *testing.T) {
	svc, mix, _ := newTestService(t)
	if err := svc.Create(testSpec("cam1")); err != nil {
		t.Fatal(err)
	}

	spec, _ := svc.Get("cam1")
	spec.Width, spec.Height = 160, 120
	if err := svc.Update("cam1", spec); err != nil {
		t.Fatal(err)
	}

	in, ok := inputByID(mix, "cam1")
	if !ok {
		t.Fatal("layer gone after stream update")
	}
	if in.Info.Width != 160 || in.Info.Height != 120 {
		t.Errorf("input geometry = %dx%d, want 160x120", in.Info.Width, in.Info.Height)
	}
	if n := len(mix.Inputs()); n != 1 {
		t.Errorf("inputs = %d, want the restarted layer only", n)
	}
}

func TestService_UpdateUnknownLayer(t *testing.T) {
	svc, _, _ := newTestService(t)
	if err := svc.Update("ghost", testSpec("ghost")); !errors.Is(err, ErrLayerNotFound) {
		t.Errorf("err = %v, want ErrLayerNotFound", err)
	}
}

func TestService_DisableStopsSource(t *testing.T) {
	svc, mix, _ := newTestService(t)
	if err := svc.Create(testSpec("cam1")); err != nil {
		t.Fatal(err)
	}

	spec, _ := svc.Get("cam1")
	spec.Enabled = false
	if err := svc.Update("cam1", spec); err != nil {
		t.Fatal(err)
	}

	if _, ok := inputByID(mix, "cam1"); ok {
		t.Error("disabled layer still attached")
	}
}

func TestService_Delete(t *testing.T) {
	svc, mix, bus := newTestService(t)

	deleted := make(chan events.LayerDeletedEvent, 1)
	defer bus.Subscribe(func(e events.LayerDeletedEvent) { deleted <- e })()

	if err := svc.Create(testSpec("cam1")); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete("cam1"); err != nil {
		t.Fatal(err)
	}

	if _, ok := svc.Get("cam1"); ok {
		t.Error("layer still persisted")
	}
	if len(mix.Inputs()) != 0 {
		t.Error("layer still attached")
	}
	if err := svc.Delete("cam1"); !errors.Is(err, ErrLayerNotFound) {
		t.Errorf("second delete = %v, want ErrLayerNotFound", err)
	}

	select {
	case <-deleted:
	case <-time.After(2 * time.Second):
		t.Error("deletion event not published")
	}
}

func TestService_LoadFromConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layers.toml")

	seed := NewTOML(path)
	if err := seed.AddLayer(testSpec("cam1")); err != nil {
		t.Fatal(err)
	}
	off := testSpec("off")
	off.Enabled = false
	if err := seed.AddLayer(off); err != nil {
		t.Fatal(err)
	}

	mix := mixer.New(mixer.NewCompositor(mixer.BackgroundBlack), discardSink{})
	svc := NewService(&ServiceOptions{Store: NewTOML(path), Mixer: mix, EventBus: events.New()})
	t.Cleanup(svc.StopAll)

	if err := svc.LoadFromConfig(); err != nil {
		t.Fatal(err)
	}
	if _, ok := inputByID(mix, "cam1"); !ok {
		t.Error("enabled layer not started")
	}
	if _, ok := inputByID(mix, "off"); ok {
		t.Error("disabled layer started")
	}
	if len(svc.List()) != 2 {
		t.Errorf("layers = %d, want both persisted", len(svc.List()))
	}
}

func TestService_ApplySnapshot(t *testing.T) {
	svc, mix, _ := newTestService(t)
	if err := svc.Create(testSpec("keep")); err != nil {
		t.Fatal(err)
	}
	if err := svc.Create(testSpec("drop")); err != nil {
		t.Fatal(err)
	}

	moved := testSpec("keep")
	moved.XPos = 99
	svc.ApplySnapshot(map[string]LayerSpec{
		"keep": moved,
		"new":  testSpec("new"),
	})

	if _, ok := svc.Get("drop"); ok {
		t.Error("layer absent from the snapshot survived")
	}
	if in, ok := inputByID(mix, "keep"); !ok || in.XPos != 99 {
		t.Errorf("kept layer not updated: %+v", in)
	}
	if _, ok := inputByID(mix, "new"); !ok {
		t.Error("layer new in the snapshot not started")
	}
}

func TestService_StopAll(t *testing.T) {
	svc, mix, _ := newTestService(t)
	if err := svc.Create(testSpec("a")); err != nil {
		t.Fatal(err)
	}
	if err := svc.Create(testSpec("b")); err != nil {
		t.Fatal(err)
	}

	svc.StopAll()

	if n := len(mix.Inputs()); n != 0 {
		t.Errorf("inputs after StopAll = %d, want 0", n)
	}
	if n := len(svc.List()); n != 2 {
		t.Errorf("specs after StopAll = %d, want both kept", n)
	}
}
