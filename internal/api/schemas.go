package api

import (
	"github.com/keagan/composer/internal/clips"
)

type HealthResponse struct {
	Status  string `json:"status"`
	UptimeS int64  `json:"uptime_s"`
}

// ComposeRequest is the body of /compile and /export
type ComposeRequest struct {
	Canvas *CanvasRequest     `json:"canvas,omitempty"`
	Output string             `json:"output,omitempty"`
	Clips  []clips.Descriptor `json:"clips"`
}

type CanvasRequest struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	FPS    float64 `json:"fps"`
}

type CompileResponse struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
	Stages  []string `json:"stages"`
	Inputs  []string `json:"inputs"`
	Maps    []string `json:"maps"`
	Output  string   `json:"output"`
}

type ExportResponse struct {
	Output string `json:"output"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}
