package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/scene2video/internal/errs"
	"github.com/ivlev/scene2video/internal/scene"
)

func kinds(req *scene.VideoRequest) []scene.Kind {
	out := make([]scene.Kind, len(req.Scenes))
	for i, s := range req.Scenes {
		out[i] = s.Kind
	}
	return out
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"app-showcase", "demo", "version-release"}, Names())
}

func TestDemoTemplate(t *testing.T) {
	req, err := Expand("demo", Params{"fps": 30, "width": 1920, "height": 1080})
	require.NoError(t, err)
	require.NoError(t, req.Validate())

	assert.Equal(t, []scene.Kind{
		scene.KindTitle, scene.KindFeatureList, scene.KindDashboard, scene.KindStatistics, scene.KindCallToAction,
	}, kinds(req))
	assert.Equal(t, 570, req.TotalFrames())
	assert.InDelta(t, 19.0, req.DurationSeconds(), 1e-9)
}

func TestEveryTemplateDecodes(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			req, err := Expand(name, Params{"fps": 24, "width": 640, "height": 360, "url": "https://example.com"})
			require.NoError(t, err)
			require.NoError(t, req.Validate())
			for i, d := range req.Scenes {
				_, err := scene.DecodeContent(d)
				assert.NoError(t, err, "scene %d (%s)", i, d.Kind)
			}
		})
	}
}

func TestVersionReleaseScenes(t *testing.T) {
	req, err := Expand("version_release", Params{"version": "v3.1", "features": "Alpha, Beta"})
	require.NoError(t, err)

	assert.Equal(t, []scene.Kind{
		scene.KindVersionTitle, scene.KindNewFeatures, scene.KindImprovements, scene.KindDemoScreens, scene.KindCallToAction,
	}, kinds(req))
	assert.Equal(t, "Scene2Video v3.1", req.Title)

	payload, err := scene.DecodeContent(req.Scenes[1])
	require.NoError(t, err)
	nf := payload.(scene.NewFeaturesContent)
	assert.Equal(t, "v3.1", nf.Version)
	require.Len(t, nf.Features, 2)
	assert.Equal(t, "Beta", nf.Features[1].Name)
}

func TestParamsOverrideDefaults(t *testing.T) {
	req, err := Expand("app-showcase", Params{
		"title":    "Acme",
		"features": []any{"One", "Two"},
		"screens":  []any{"shots/home.png", "deck.pdf", "Settings"},
		"url":      "https://acme.test",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", req.Title)

	title, err := scene.DecodeContent(req.Scenes[0])
	require.NoError(t, err)
	assert.Equal(t, "Acme", title.(scene.TitleContent).Title)

	screens, err := scene.DecodeContent(req.Scenes[1])
	require.NoError(t, err)
	got := screens.(scene.DemoScreensContent).Screens
	require.Len(t, got, 3)
	assert.Equal(t, scene.Screen{Name: "home", Image: "shots/home.png"}, got[0])
	assert.Equal(t, scene.Screen{Name: "deck", PDF: "deck.pdf", Page: 1}, got[1])
	assert.Equal(t, scene.Screen{Name: "Settings"}, got[2])

	list, err := scene.DecodeContent(req.Scenes[2])
	require.NoError(t, err)
	assert.Equal(t, []string{"One", "Two"}, list.(scene.FeatureListContent).Features)

	cta, err := scene.DecodeContent(req.Scenes[3])
	require.NoError(t, err)
	assert.Equal(t, "https://acme.test", cta.(scene.CallToActionContent).URL)
}

func TestUnknownTemplate(t *testing.T) {
	_, err := Expand("nope", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Contains(t, err.Error(), "demo")
}

func TestNumericParamsFromStrings(t *testing.T) {
	req, err := Expand("demo", Params{"fps": "24", "width": " 1280", "height": "720"})
	require.NoError(t, err)
	assert.Equal(t, 24, req.FPS)
	assert.Equal(t, scene.Resolution{Width: 1280, Height: 720}, req.Resolution)
}
