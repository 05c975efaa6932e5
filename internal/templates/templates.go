// Package templates expands named presets into complete scene scripts.
package templates

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ivlev/scene2video/internal/errs"
	"github.com/ivlev/scene2video/internal/scene"
)

// Params overrides template defaults. Recognized keys: title, subtitle,
// product, version, date, url, button, features, improvements, screens,
// fps, width, height.
type Params map[string]any

type builder func(p Params) []scene.Descriptor

var registry = map[string]builder{
	"demo":            demo,
	"app-showcase":    appShowcase,
	"version-release": versionRelease,
}

// Names lists the available templates in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Expand builds the request for template name with p applied.
func Expand(name string, p Params) (*scene.VideoRequest, error) {
	const op = "templates.expand"

	build, ok := registry[canonical(name)]
	if !ok {
		return nil, errs.Validation(op, "unknown template %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	if p == nil {
		p = Params{}
	}

	req := &scene.VideoRequest{
		Title:  p.str("title", defaultTitle(canonical(name), p)),
		Scenes: build(p),
		FPS:    p.num("fps", 0),
		Resolution: scene.Resolution{
			Width:  p.num("width", 0),
			Height: p.num("height", 0),
		},
	}
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	return req, nil
}

func canonical(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

func defaultTitle(name string, p Params) string {
	product := p.str("product", "Scene2Video")
	switch name {
	case "version-release":
		return fmt.Sprintf("%s %s", product, p.str("version", "v2.0"))
	case "app-showcase":
		return product + " Showcase"
	default:
		return product + " Demo"
	}
}

func demo(p Params) []scene.Descriptor {
	product := p.str("product", "Scene2Video")
	return []scene.Descriptor{
		{Kind: scene.KindTitle, Duration: 3, Content: map[string]any{
			"title":    p.str("title", product),
			"subtitle": p.str("subtitle", "Procedural video from declarative scenes"),
		}},
		{Kind: scene.KindFeatureList, Duration: 5, Content: map[string]any{
			"title": "Key Features",
			"features": p.list("features", []string{
				"Declarative scene scripts",
				"Resolution-independent rendering",
				"Parallel frame generation",
				"Hardware-accelerated encoding",
				"Per-job isolation and cleanup",
			}),
		}},
		{Kind: scene.KindDashboard, Duration: 4, Content: map[string]any{
			"title":  product + " Dashboard",
			"panels": []any{"Renders", "Frames", "Encodes", "Errors"},
			"values": []any{1280.0, 960.0, 1440.0, 320.0},
		}},
		{Kind: scene.KindStatistics, Duration: 4, Content: map[string]any{
			"title": "By the Numbers",
			"stats": []any{
				map[string]any{"value": "570", "label": "Frames"},
				map[string]any{"value": "19s", "label": "Runtime"},
				map[string]any{"value": "30", "label": "FPS"},
				map[string]any{"value": "1080p", "label": "Resolution"},
			},
		}},
		callToAction(p, 3),
	}
}

func appShowcase(p Params) []scene.Descriptor {
	product := p.str("product", "Scene2Video")
	return []scene.Descriptor{
		{Kind: scene.KindTitle, Duration: 3, Content: map[string]any{
			"title":    p.str("title", product),
			"subtitle": p.str("subtitle", "See it in action"),
		}},
		{Kind: scene.KindDemoScreens, Duration: 8, Content: map[string]any{
			"title":   "Product Tour",
			"screens": p.screens([]string{"Overview", "Editor", "Timeline", "Export"}),
		}},
		{Kind: scene.KindFeatureList, Duration: 5, Content: map[string]any{
			"title": "Why " + product,
			"features": p.list("features", []string{
				"Fast to set up",
				"Consistent branding",
				"Works at any resolution",
				"Scriptable from CI",
			}),
		}},
		callToAction(p, 4),
	}
}

func versionRelease(p Params) []scene.Descriptor {
	version := p.str("version", "v2.0")
	features := p.list("features", []string{
		"Scene templates",
		"QR codes in call to action",
		"PDF pages as demo screens",
	})
	named := make([]any, 0, len(features))
	for _, f := range features {
		named = append(named, map[string]any{"name": f})
	}
	return []scene.Descriptor{
		{Kind: scene.KindVersionTitle, Duration: 3, Content: map[string]any{
			"version": version,
			"title":   p.str("title", "What's New"),
			"date":    p.str("date", ""),
		}},
		{Kind: scene.KindNewFeatures, Duration: 5, Content: map[string]any{
			"title":    "New Features",
			"version":  version,
			"features": named,
		}},
		{Kind: scene.KindImprovements, Duration: 4, Content: map[string]any{
			"title": "Improvements",
			"items": p.list("improvements", []string{
				"Faster frame rendering",
				"Smaller output files",
				"Clearer error messages",
			}),
		}},
		{Kind: scene.KindDemoScreens, Duration: 4, Content: map[string]any{
			"title":   "Try It",
			"screens": p.screens([]string{"Before", "After"}),
		}},
		callToAction(p, 3),
	}
}

func callToAction(p Params, duration float64) scene.Descriptor {
	content := map[string]any{
		"title":    p.str("cta_title", "Get Started Today"),
		"subtitle": p.str("cta_subtitle", ""),
		"button":   p.str("button", "Try it free"),
	}
	if url := p.str("url", ""); url != "" {
		content["url"] = url
	}
	return scene.Descriptor{Kind: scene.KindCallToAction, Duration: duration, Content: content}
}

func (p Params) str(key, def string) string {
	switch v := p[key].(type) {
	case string:
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return def
}

func (p Params) num(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// list accepts []string, []any of strings or a comma separated string.
func (p Params) list(key string, def []string) []any {
	var items []string
	switch v := p[key].(type) {
	case []string:
		items = v
	case []any:
		for _, x := range v {
			if s, ok := x.(string); ok {
				items = append(items, s)
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
	}
	if len(items) == 0 {
		items = def
	}
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}

// screens maps names or image paths from the "screens" param onto screen
// entries. Entries ending in .pdf, .png or .jpg are treated as files.
func (p Params) screens(def []string) []any {
	entries := p.list("screens", def)
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		s := e.(string)
		lower := strings.ToLower(s)
		switch {
		case strings.HasSuffix(lower, ".pdf"):
			out = append(out, map[string]any{"name": baseName(s), "pdf": s, "page": 1})
		case strings.HasSuffix(lower, ".png"), strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
			out = append(out, map[string]any{"name": baseName(s), "image": s})
		default:
			out = append(out, map[string]any{"name": s})
		}
	}
	return out
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		path = path[i+1:]
	}
	if i := strings.LastIndex(path, "."); i > 0 {
		path = path[:i]
	}
	return path
}
