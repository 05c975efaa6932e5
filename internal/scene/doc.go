// Package scene defines the declarative input of a rendering job: scene
// descriptors, their kind-specific payloads and the video request that bundles
// them, plus the artifact handed back once a job succeeds.
//
// A descriptor's Content is an untyped map so scripts can arrive as YAML or
// JSON. DecodeContent turns it into one of the Payload variants; the renderer
// switches on the variant, never on the raw map.
package scene
