package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/mixnode/internal/api/models"
	"github.com/smazurov/mixnode/internal/mixer"
	"github.com/smazurov/mixnode/internal/video"
)

// registerOutputRoutes sets up the composited output control endpoints.
func (s *Server) registerOutputRoutes() {
	// Output status
	huma.Register(s.api, huma.Operation{
		OperationID: "get-output",
		Method:      http.MethodGet,
		Path:        "/api/output",
		Summary:     "Output Status",
		Description: "Get the negotiated output format, position and mixer counters",
		Tags:        []string{"output"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct{}) (*models.OutputResponse, error) {
		stats := s.mix.Stats()
		data := models.OutputData{
			Negotiated: s.mix.Negotiated(),
			Background: s.compositor.Background().String(),
			PositionNs: int64(s.mix.Position()),
			Processed:  stats.Processed,
			Dropped:    stats.Dropped,
			Proportion: stats.Proportion,
		}
		if data.Negotiated {
			info := s.mix.OutputInfo()
			data.Format = info.Format.String()
			data.Width = info.Width
			data.Height = info.Height
			data.FPSNum = info.FPS.Num
			data.FPSDen = info.FPS.Den
		}
		return &models.OutputResponse{Body: data}, nil
	})

	// Change the canvas background
	huma.Register(s.api, huma.Operation{
		OperationID: "set-background",
		Method:      http.MethodPut,
		Path:        "/api/output/background",
		Summary:     "Set Background",
		Description: "Change the canvas background for frames without full coverage",
		Tags:        []string{"output"},
		Security:    withAuth(),
		Errors:      []int{400, 401},
	}, func(ctx context.Context, input *models.BackgroundRequest) (*models.OutputResponse, error) {
		bg, err := mixer.ParseBackground(input.Body.Background)
		if err != nil {
			return nil, huma.Error400BadRequest("Unknown background", err)
		}
		s.compositor.SetBackground(bg)
		stats := s.mix.Stats()
		return &models.OutputResponse{Body: models.OutputData{
			Negotiated: s.mix.Negotiated(),
			Background: bg.String(),
			PositionNs: int64(s.mix.Position()),
			Processed:  stats.Processed,
			Dropped:    stats.Dropped,
			Proportion: stats.Proportion,
		}}, nil
	})

	// Seek the output timeline
	huma.Register(s.api, huma.Operation{
		OperationID: "seek-output",
		Method:      http.MethodPost,
		Path:        "/api/output/seek",
		Summary:     "Seek",
		Description: "Reposition the output timeline with a new rate and segment",
		Tags:        []string{"output"},
		Security:    withAuth(),
		Errors:      []int{400, 401},
	}, func(ctx context.Context, input *models.SeekRequest) (*models.SeekResponse, error) {
		stop := video.None
		if input.Body.StopNs > 0 {
			stop = video.Time(input.Body.StopNs)
		}
		err := s.mix.Seek(input.Body.Rate, video.Time(input.Body.StartNs), stop, input.Body.Flush)
		if err != nil {
			return nil, huma.Error400BadRequest("Seek rejected", err)
		}
		resp := &models.SeekResponse{}
		resp.Body.Message = "seek applied"
		return resp, nil
	})

	// Grab one composited frame
	if s.broadcast != nil {
		s.registerFrameRoute()
	}

	// Flush buffered frames
	huma.Register(s.api, huma.Operation{
		OperationID: "flush-output",
		Method:      http.MethodPost,
		Path:        "/api/output/flush",
		Summary:     "Flush",
		Description: "Discard all buffered input frames and reset queue timing",
		Tags:        []string{"output"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct{}) (*models.SeekResponse, error) {
		s.mix.Flush()
		resp := &models.SeekResponse{}
		resp.Body.Message = "flushed"
		return resp, nil
	})
}

// frameOutput carries one raw composited frame with its layout in headers.
type frameOutput struct {
	ContentType string `header:"Content-Type"`
	Format      string `header:"X-Frame-Format"`
	Width       int    `header:"X-Frame-Width"`
	Height      int    `header:"X-Frame-Height"`
	PTSNs       int64  `header:"X-Frame-PTS-Ns"`
	Body        []byte
}

// registerFrameRoute exposes a single composited frame as raw plane bytes,
// tightly packed in plane order.
func (s *Server) registerFrameRoute() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-output-frame",
		Method:      http.MethodGet,
		Path:        "/api/output/frame",
		Summary:     "Grab Frame",
		Description: "Wait for the next composited frame and return its raw plane data",
		Tags:        []string{"output"},
		Security:    withAuth(),
		Errors:      []int{401, 503},
	}, func(ctx context.Context, input *struct {
		TimeoutMs int `query:"timeout_ms" default:"2000" minimum:"1" maximum:"30000" doc:"How long to wait for a frame"`
	}) (*frameOutput, error) {
		ch, cancel := s.broadcast.Subscribe(s.frameBuffer)
		defer cancel()

		deadline := time.After(time.Duration(input.TimeoutMs) * time.Millisecond)
		for {
			select {
			case <-ctx.Done():
				return nil, huma.Error503ServiceUnavailable("Client went away")
			case <-deadline:
				return nil, huma.Error503ServiceUnavailable("No frame produced within timeout")
			case msg := <-ch:
				if msg.Frame == nil {
					continue
				}
				f := msg.Frame
				size := 0
				for _, plane := range f.Data {
					size += len(plane)
				}
				body := make([]byte, 0, size)
				for _, plane := range f.Data {
					body = append(body, plane...)
				}
				return &frameOutput{
					ContentType: "application/octet-stream",
					Format:      f.Info.Format.String(),
					Width:       f.Info.Width,
					Height:      f.Info.Height,
					PTSNs:       int64(f.PTS),
					Body:        body,
				}, nil
			}
		}
	})
}
