package visual

import (
	"context"

	"wordsmith/internal/core"
)

// SlotImage is a generated image tagged with the article slot it fills.
// The generator passes the slot through without interpreting it.
type SlotImage struct {
	Slot core.SlotName
	PNG  []byte
}

// ImageBackend is the narrow contract the generator needs from the image
// LLM adapter.
type ImageBackend interface {
	GenerateImage(ctx context.Context, prompt, size string) ([]byte, error)
	Name() string
	IsConfigured() bool
}

// Generator produces slot images for articles. Storage is the caller's job.
type Generator struct {
	backend ImageBackend
}

// NewGenerator creates a slot image generator over the given backend.
func NewGenerator(backend ImageBackend) *Generator {
	return &Generator{backend: backend}
}

// slotSizes maps article slots to generation sizes: the hero is a wide
// banner, mid and bottom are squarer inline images.
var slotSizes = map[core.SlotName]string{
	core.SlotHero:   "1536x1024",
	core.SlotMid:    "1024x1024",
	core.SlotBottom: "1024x1024",
}

// Generate produces one PNG for the given slot.
func (g *Generator) Generate(ctx context.Context, prompt string, slot core.SlotName) (SlotImage, error) {
	size, ok := slotSizes[slot]
	if !ok {
		size = "1024x1024"
	}

	png, err := g.backend.GenerateImage(ctx, prompt, size)
	if err != nil {
		return SlotImage{}, err
	}
	return SlotImage{Slot: slot, PNG: png}, nil
}
