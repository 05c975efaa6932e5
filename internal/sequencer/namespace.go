package sequencer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ivlev/scene2video/internal/errs"
)

// Frame names carry a three digit scene ordinal and a six digit job-wide
// frame ordinal, so lexicographic order is generation order for any request
// that passes validation.
const (
	frameNameFormat = "s%03d_f%06d.png"
	framePattern    = "s*_f*.png"
)

// Frame is one rendered frame file.
type Frame struct {
	JobID      string
	SceneIndex int
	// Index is the frame's position within the whole job.
	Index int
	Path  string
}

// Namespace is the private directory one job writes its frames into.
type Namespace struct {
	JobID string
	Dir   string
}

// NewNamespace creates <root>/<jobID>. An existing directory is an error: two
// jobs never share a namespace. An empty root means the system temp dir.
func NewNamespace(root, jobID string) (*Namespace, error) {
	if jobID == "" || filepath.Base(jobID) != jobID {
		return nil, fmt.Errorf("invalid job id %q", jobID)
	}
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create temp root: %w", err)
	}
	dir := filepath.Join(root, jobID)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create job namespace: %w", err)
	}
	return &Namespace{JobID: jobID, Dir: dir}, nil
}

// FramePath returns the file a frame is written to.
func (n *Namespace) FramePath(sceneIndex, frameIndex int) string {
	return filepath.Join(n.Dir, fmt.Sprintf(frameNameFormat, sceneIndex, frameIndex))
}

// Pattern is the glob the encoder reads frames through.
func (n *Namespace) Pattern() string {
	return filepath.Join(n.Dir, framePattern)
}

// Frames lists the frame files currently in the namespace, in encode order.
func (n *Namespace) Frames() ([]string, error) {
	paths, err := filepath.Glob(n.Pattern())
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// Cleanup removes every entry in the namespace, then the namespace itself. It
// keeps going past failures and reports each one as a cleanup error. It
// returns the number of entries removed.
func (n *Namespace) Cleanup() (int, []error) {
	entries, err := os.ReadDir(n.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, []error{errs.Cleanup(err, n.Dir)}
	}

	removed := 0
	var failures []error
	for _, entry := range entries {
		path := filepath.Join(n.Dir, entry.Name())
		if err := os.Remove(path); err != nil {
			failures = append(failures, errs.Cleanup(err, path))
			continue
		}
		removed++
	}
	if err := os.Remove(n.Dir); err != nil {
		failures = append(failures, errs.Cleanup(err, n.Dir))
	}
	return removed, failures
}
