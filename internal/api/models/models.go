package models

import "time"

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Layer models
type LayerData struct {
	ID      string  `json:"id" example:"camera-1" doc:"Layer identifier"`
	Name    string  `json:"name" example:"Camera 1" doc:"Human-readable name"`
	Pattern string  `json:"pattern" example:"bars" doc:"Generated content: bars, solid, snow, moving-box, checker"`
	Format  string  `json:"format" example:"I420" doc:"Pixel format of the produced stream"`
	Width   int     `json:"width" example:"1280" doc:"Stream width in pixels"`
	Height  int     `json:"height" example:"720" doc:"Stream height in pixels"`
	FPS     int     `json:"fps" example:"30" doc:"Stream framerate"`
	XPos    int     `json:"xpos" example:"0" doc:"Horizontal offset on the output canvas"`
	YPos    int     `json:"ypos" example:"0" doc:"Vertical offset on the output canvas"`
	ZOrder  int     `json:"zorder" example:"1" doc:"Stacking position, higher paints on top"`
	Alpha   float64 `json:"alpha" example:"1.0" minimum:"0" maximum:"1" doc:"Layer opacity"`
	SolidY  int     `json:"solid_y,omitempty" doc:"Solid fill luma (solid pattern only)"`
	SolidU  int     `json:"solid_u,omitempty" doc:"Solid fill Cb (solid pattern only)"`
	SolidV  int     `json:"solid_v,omitempty" doc:"Solid fill Cr (solid pattern only)"`
	Enabled bool    `json:"enabled" example:"true" doc:"Whether the layer feeds the mixer"`

	CreatedAt time.Time `json:"created_at,omitempty" doc:"When the layer was created"`
	UpdatedAt time.Time `json:"updated_at,omitempty" doc:"When the layer was last modified"`
}

type LayerListData struct {
	Layers []LayerData `json:"layers" doc:"All configured layers in z-order"`
	Count  int         `json:"count" example:"2" doc:"Number of layers"`
}

type LayerListResponse struct {
	Body LayerListData
}

type LayerRequestData struct {
	Name    string  `json:"name,omitempty" example:"Camera 1" doc:"Human-readable name, defaults to the ID"`
	Pattern string  `json:"pattern" enum:"bars,solid,snow,moving-box,checker" example:"bars" doc:"Generated content"`
	Format  string  `json:"format" example:"I420" doc:"Pixel format of the produced stream"`
	Width   int     `json:"width" minimum:"1" example:"1280" doc:"Stream width in pixels"`
	Height  int     `json:"height" minimum:"1" example:"720" doc:"Stream height in pixels"`
	FPS     int     `json:"fps,omitempty" minimum:"1" example:"30" doc:"Stream framerate, defaults to 30"`
	XPos    int     `json:"xpos,omitempty" doc:"Horizontal offset on the output canvas"`
	YPos    int     `json:"ypos,omitempty" doc:"Vertical offset on the output canvas"`
	ZOrder  int     `json:"zorder,omitempty" doc:"Stacking position, higher paints on top"`
	Alpha   float64 `json:"alpha" minimum:"0" maximum:"1" example:"1.0" doc:"Layer opacity"`
	SolidY  int     `json:"solid_y,omitempty" doc:"Solid fill luma (solid pattern only)"`
	SolidU  int     `json:"solid_u,omitempty" doc:"Solid fill Cb (solid pattern only)"`
	SolidV  int     `json:"solid_v,omitempty" doc:"Solid fill Cr (solid pattern only)"`
	Enabled bool    `json:"enabled" example:"true" doc:"Whether the layer feeds the mixer"`
}

type LayerResponse struct {
	Body LayerData
}

// Output models
type OutputData struct {
	Negotiated bool    `json:"negotiated" example:"true" doc:"Whether an output format has been settled"`
	Format     string  `json:"format,omitempty" example:"BGRA" doc:"Negotiated pixel format"`
	Width      int     `json:"width,omitempty" example:"1920" doc:"Output width in pixels"`
	Height     int     `json:"height,omitempty" example:"1080" doc:"Output height in pixels"`
	FPSNum     int     `json:"fps_num,omitempty" example:"30" doc:"Framerate numerator"`
	FPSDen     int     `json:"fps_den,omitempty" example:"1" doc:"Framerate denominator"`
	Background string  `json:"background" example:"checker" doc:"Canvas background: checker, black, white, transparent"`
	PositionNs int64   `json:"position_ns" doc:"Output stream position in nanoseconds, -1 before the first frame"`
	Processed  uint64  `json:"processed" doc:"Frames composited so far"`
	Dropped    uint64  `json:"dropped" doc:"Frames dropped on lateness feedback"`
	Proportion float64 `json:"proportion" example:"1.0" doc:"Last reported downstream rate proportion"`
}

type OutputResponse struct {
	Body OutputData
}

type BackgroundRequest struct {
	Body struct {
		Background string `json:"background" enum:"checker,black,white,transparent" example:"black" doc:"Canvas background"`
	}
}

type SeekRequest struct {
	Body struct {
		Rate    float64 `json:"rate" minimum:"0" exclusiveMinimum:"true" example:"1.0" doc:"Playback rate, must be positive"`
		StartNs int64   `json:"start_ns" minimum:"0" doc:"Segment start in nanoseconds"`
		StopNs  int64   `json:"stop_ns,omitempty" doc:"Segment stop in nanoseconds, 0 for open-ended"`
		Flush   bool    `json:"flush" example:"true" doc:"Discard buffered frames"`
	}
}

type SeekResponse struct {
	Body struct {
		Message string `json:"message" doc:"Operation result message"`
	}
}

// Error response
type ErrorData struct {
	Status  string `json:"status" example:"error" doc:"Error status"`
	Message string `json:"message" example:"Layer not found" doc:"Error message"`
}

type ErrorResponse struct {
	Body ErrorData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2024-12-15 14:30" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"a1b2c3d4" doc:"Unique build identifier"`
	GoVersion string `json:"go_version" example:"go1.21.0" doc:"Go compiler version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Compiler used"`
	Platform  string `json:"platform" example:"linux/amd64" doc:"Platform"`
}

type VersionResponse struct {
	Body VersionData
}
