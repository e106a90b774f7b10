package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/keagan/composer/internal/clips"
	"github.com/keagan/composer/pkg/util"
)

// Composition is a composition file: an optional canvas and output
// override plus the clip list. JSON files parse too.
type Composition struct {
	Canvas *CanvasOverride    `yaml:"canvas,omitempty"`
	Output string             `yaml:"output,omitempty"`
	Clips  []clips.Descriptor `yaml:"clips"`
}

type CanvasOverride struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	FPS    float64 `yaml:"fps"`
}

// LoadComposition reads a composition file. Descriptors are validated
// later, when the clips are loaded.
func LoadComposition(path string) (*Composition, error) {
	if !util.FileExists(path) {
		return nil, fmt.Errorf("composition file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var comp Composition
	if err := yaml.Unmarshal(data, &comp); err != nil {
		return nil, fmt.Errorf("parse composition %s: %w", path, err)
	}

	if c := comp.Canvas; c != nil && (c.Width <= 0 || c.Height <= 0 || c.FPS <= 0) {
		return nil, fmt.Errorf("composition canvas must be positive, got %dx%d@%v", c.Width, c.Height, c.FPS)
	}

	return &comp, nil
}

// Apply overlays the composition's canvas onto cfg
func (c *Composition) Apply(cfg *Config) {
	if c.Canvas != nil {
		cfg.Canvas = clips.Canvas{Width: c.Canvas.Width, Height: c.Canvas.Height, FPS: c.Canvas.FPS}
	}
}
