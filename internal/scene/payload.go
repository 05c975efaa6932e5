package scene

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Payload is the decoded, kind-specific content of a scene.
type Payload interface {
	Kind() Kind
	validate() error
}

type TitleContent struct {
	Title    string `yaml:"title"`
	Subtitle string `yaml:"subtitle"`
}

type FeatureListContent struct {
	Title    string   `yaml:"title"`
	Features []string `yaml:"features"`
}

// DashboardContent drives the dashboard mockup. Values feed the bar chart and
// are normalized against their maximum.
type DashboardContent struct {
	Title  string    `yaml:"title"`
	Panels []string  `yaml:"panels"`
	Values []float64 `yaml:"values"`
}

type Stat struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

type StatisticsContent struct {
	Title string `yaml:"title"`
	Stats []Stat `yaml:"stats"`
}

type CallToActionContent struct {
	Title    string `yaml:"title"`
	Subtitle string `yaml:"subtitle"`
	Button   string `yaml:"button"`
	// URL, when set, is also rendered as a QR code.
	URL string `yaml:"url"`
}

type VersionTitleContent struct {
	Version string `yaml:"version"`
	Title   string `yaml:"title"`
	Date    string `yaml:"date"`
}

type Feature struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type NewFeaturesContent struct {
	Title    string    `yaml:"title"`
	Version  string    `yaml:"version"`
	Features []Feature `yaml:"features"`
}

type ImprovementsContent struct {
	Title string   `yaml:"title"`
	Items []string `yaml:"items"`
}

// Screen is one mockup in a demo_screens scene. Image is a PNG/JPEG path, PDF
// a document whose Page (1-based) is rasterized. Without either, a placeholder
// layout is drawn. Trim crops empty margins around the content.
type Screen struct {
	Name  string `yaml:"name"`
	Image string `yaml:"image"`
	PDF   string `yaml:"pdf"`
	Page  int    `yaml:"page"`
	Trim  bool   `yaml:"trim"`
}

type DemoScreensContent struct {
	Title   string   `yaml:"title"`
	Screens []Screen `yaml:"screens"`
}

func (TitleContent) Kind() Kind        { return KindTitle }
func (FeatureListContent) Kind() Kind  { return KindFeatureList }
func (DashboardContent) Kind() Kind    { return KindDashboard }
func (StatisticsContent) Kind() Kind   { return KindStatistics }
func (CallToActionContent) Kind() Kind { return KindCallToAction }
func (VersionTitleContent) Kind() Kind { return KindVersionTitle }
func (NewFeaturesContent) Kind() Kind  { return KindNewFeatures }
func (ImprovementsContent) Kind() Kind { return KindImprovements }
func (DemoScreensContent) Kind() Kind  { return KindDemoScreens }

var errEmptyTitle = errors.New("title is required")

func (c TitleContent) validate() error {
	if blank(c.Title) {
		return errEmptyTitle
	}
	return nil
}

func (c FeatureListContent) validate() error {
	return nonEmptyList("features", c.Features)
}

func (c DashboardContent) validate() error {
	if blank(c.Title) {
		return errEmptyTitle
	}
	for _, v := range c.Values {
		if v < 0 {
			return fmt.Errorf("values must not be negative, got %g", v)
		}
	}
	return nil
}

func (c StatisticsContent) validate() error {
	if len(c.Stats) == 0 {
		return errors.New("stats must not be empty")
	}
	for i, s := range c.Stats {
		if blank(s.Value) {
			return fmt.Errorf("stats[%d].value is required", i)
		}
	}
	return nil
}

func (c CallToActionContent) validate() error {
	if blank(c.Title) && blank(c.Button) {
		return errors.New("title or button is required")
	}
	return nil
}

func (c VersionTitleContent) validate() error {
	if blank(c.Version) {
		return errors.New("version is required")
	}
	return nil
}

func (c NewFeaturesContent) validate() error {
	if len(c.Features) == 0 {
		return errors.New("features must not be empty")
	}
	for i, f := range c.Features {
		if blank(f.Name) {
			return fmt.Errorf("features[%d].name is required", i)
		}
	}
	return nil
}

func (c ImprovementsContent) validate() error {
	return nonEmptyList("items", c.Items)
}

func (c DemoScreensContent) validate() error {
	if len(c.Screens) == 0 {
		return errors.New("screens must not be empty")
	}
	for i, s := range c.Screens {
		if s.Image != "" && s.PDF != "" {
			return fmt.Errorf("screens[%d]: image and pdf are mutually exclusive", i)
		}
		if s.Page < 0 {
			return fmt.Errorf("screens[%d].page must not be negative", i)
		}
	}
	return nil
}

// DecodeContent converts the descriptor's raw content into its payload
// variant. Unknown fields, wrong types and missing required values are errors.
func DecodeContent(d Descriptor) (Payload, error) {
	var target Payload
	switch d.Kind {
	case KindTitle:
		target = &TitleContent{}
	case KindFeatureList:
		target = &FeatureListContent{}
	case KindDashboard:
		target = &DashboardContent{}
	case KindStatistics:
		target = &StatisticsContent{}
	case KindCallToAction:
		target = &CallToActionContent{}
	case KindVersionTitle:
		target = &VersionTitleContent{}
	case KindNewFeatures:
		target = &NewFeaturesContent{}
	case KindImprovements:
		target = &ImprovementsContent{}
	case KindDemoScreens:
		target = &DemoScreensContent{}
	default:
		return nil, fmt.Errorf("unsupported scene kind %q", d.Kind)
	}

	if len(d.Content) > 0 {
		raw, err := yaml.Marshal(d.Content)
		if err != nil {
			return nil, fmt.Errorf("%s content: %w", d.Kind, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(target); err != nil {
			return nil, fmt.Errorf("%s content: %w", d.Kind, err)
		}
	}

	payload := deref(target)
	if err := payload.validate(); err != nil {
		return nil, fmt.Errorf("%s content: %w", d.Kind, err)
	}
	return payload, nil
}

// deref returns the value form so renderers switch on plain structs.
func deref(p Payload) Payload {
	switch v := p.(type) {
	case *TitleContent:
		return *v
	case *FeatureListContent:
		return *v
	case *DashboardContent:
		return *v
	case *StatisticsContent:
		return *v
	case *CallToActionContent:
		return *v
	case *VersionTitleContent:
		return *v
	case *NewFeaturesContent:
		return *v
	case *ImprovementsContent:
		return *v
	case *DemoScreensContent:
		return *v
	}
	return p
}

func nonEmptyList(field string, items []string) error {
	if len(items) == 0 {
		return fmt.Errorf("%s must not be empty", field)
	}
	for i, item := range items {
		if blank(item) {
			return fmt.Errorf("%s[%d] is empty", field, i)
		}
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
