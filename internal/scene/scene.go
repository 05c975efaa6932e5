package scene

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Kind identifies the layout and animation of a scene.
type Kind string

const (
	KindTitle        Kind = "title"
	KindFeatureList  Kind = "feature_list"
	KindDashboard    Kind = "dashboard"
	KindStatistics   Kind = "statistics"
	KindCallToAction Kind = "call_to_action"
	KindVersionTitle Kind = "version_title"
	KindNewFeatures  Kind = "new_features"
	KindImprovements Kind = "improvements"
	KindDemoScreens  Kind = "demo_screens"
)

// Kinds lists every supported scene kind.
var Kinds = []Kind{
	KindTitle,
	KindFeatureList,
	KindDashboard,
	KindStatistics,
	KindCallToAction,
	KindVersionTitle,
	KindNewFeatures,
	KindImprovements,
	KindDemoScreens,
}

// ParseKind accepts snake_case, kebab-case and CamelCase spellings.
func ParseKind(s string) (Kind, error) {
	key := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.TrimSpace(s)))
	for _, k := range Kinds {
		if strings.ReplaceAll(string(k), "_", "") == key {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown scene kind %q", s)
}

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Descriptor is one declaratively described segment of the video.
type Descriptor struct {
	Kind     Kind           `yaml:"kind" json:"kind"`
	Content  map[string]any `yaml:"content" json:"content"`
	Duration float64        `yaml:"duration" json:"duration"` // seconds
}

// Frames returns the number of frames the scene occupies at fps.
func (d Descriptor) Frames(fps int) int {
	return FrameCount(d.Duration, fps)
}

// FrameCount rounds duration*fps to the nearest whole frame.
func FrameCount(durationSeconds float64, fps int) int {
	return int(math.Round(durationSeconds * float64(fps)))
}

// Resolution is the output frame size in pixels.
type Resolution struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// VideoRequest fully specifies one rendering job.
type VideoRequest struct {
	Title      string       `yaml:"title" json:"title"`
	Scenes     []Descriptor `yaml:"scenes" json:"scenes"`
	Resolution Resolution   `yaml:"resolution" json:"resolution"`
	FPS        int          `yaml:"fps" json:"fps"`
	// Watermark nil means the configured default applies.
	Watermark *bool `yaml:"watermark,omitempty" json:"watermark,omitempty"`
	// Output is an optional target path for the encoded file.
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
}

// TotalFrames sums the frame counts of all scenes.
func (r *VideoRequest) TotalFrames() int {
	total := 0
	for _, s := range r.Scenes {
		total += s.Frames(r.FPS)
	}
	return total
}

// DurationSeconds is the encoded length implied by the frame count.
func (r *VideoRequest) DurationSeconds() float64 {
	if r.FPS <= 0 {
		return 0
	}
	return float64(r.TotalFrames()) / float64(r.FPS)
}

// WatermarkEnabled resolves the request flag against a default.
func (r *VideoRequest) WatermarkEnabled(def bool) bool {
	if r.Watermark == nil {
		return def
	}
	return *r.Watermark
}

// VideoArtifact describes a finished, encoded video.
type VideoArtifact struct {
	ID              string     `json:"id" yaml:"id"`
	Path            string     `json:"path" yaml:"path"`
	DurationSeconds float64    `json:"duration_seconds" yaml:"duration_seconds"`
	Resolution      Resolution `json:"resolution" yaml:"resolution"`
	SizeBytes       int64      `json:"size_bytes" yaml:"size_bytes"`
	CreatedAt       time.Time  `json:"created_at" yaml:"created_at"`
}
