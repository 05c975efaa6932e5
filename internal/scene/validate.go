package scene

import (
	"github.com/ivlev/scene2video/internal/errs"
)

// Limits keep frame file names sortable: three digits of scene ordinal and six
// digits of frame ordinal.
const (
	MaxScenes    = 999
	MaxFrames    = 999_999
	MaxFPS       = 120
	MaxDimension = 7680
)

// Normalize canonicalizes kind spellings in place.
func (r *VideoRequest) Normalize() error {
	for i := range r.Scenes {
		k, err := ParseKind(string(r.Scenes[i].Kind))
		if err != nil {
			return errs.Validation("request.normalize", "scenes[%d]: %v", i, err)
		}
		r.Scenes[i].Kind = k
	}
	return nil
}

// Validate checks the structure of a request. Payload content is checked by
// the renderer when the scene is drawn.
func (r *VideoRequest) Validate() error {
	const op = "request.validate"

	if len(r.Scenes) == 0 {
		return errs.Validation(op, "at least one scene is required")
	}
	if len(r.Scenes) > MaxScenes {
		return errs.Validation(op, "too many scenes: %d (max %d)", len(r.Scenes), MaxScenes)
	}
	if r.FPS <= 0 || r.FPS > MaxFPS {
		return errs.Validation(op, "fps must be between 1 and %d, got %d", MaxFPS, r.FPS)
	}
	if r.Resolution.Width <= 0 || r.Resolution.Height <= 0 {
		return errs.Validation(op, "resolution must be positive, got %s", r.Resolution)
	}
	if r.Resolution.Width > MaxDimension || r.Resolution.Height > MaxDimension {
		return errs.Validation(op, "resolution %s exceeds %d pixels", r.Resolution, MaxDimension)
	}
	// yuv420p needs even dimensions
	if r.Resolution.Width%2 != 0 || r.Resolution.Height%2 != 0 {
		return errs.Validation(op, "resolution must have even dimensions, got %s", r.Resolution)
	}

	for i, s := range r.Scenes {
		if !s.Kind.Valid() {
			return errs.Validation(op, "scenes[%d]: unknown kind %q", i, s.Kind)
		}
		if s.Duration <= 0 {
			return errs.Validation(op, "scenes[%d]: duration must be positive, got %g", i, s.Duration)
		}
		if s.Frames(r.FPS) < 1 {
			return errs.Validation(op, "scenes[%d]: duration %gs is shorter than one frame at %d fps", i, s.Duration, r.FPS)
		}
	}

	if total := r.TotalFrames(); total > MaxFrames {
		return errs.Validation(op, "request has %d frames (max %d)", total, MaxFrames)
	}
	return nil
}
