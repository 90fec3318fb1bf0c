package report

import (
	"context"

	"github.com/rs/zerolog"
)

// Builder prefers its Generator and falls back to the deterministic report
// on any failure. A nil Generator always falls back.
type Builder struct {
	Generator Generator
	Logger    zerolog.Logger
}

func NewBuilder(gen Generator, logger zerolog.Logger) *Builder {
	return &Builder{Generator: gen, Logger: logger}
}

// Build never fails; the Source field of the result tells which path ran.
func (b *Builder) Build(ctx context.Context, p *Payload) *Document {
	log := b.Logger.With().Str("stage", "report").Logger()

	if b.Generator == nil {
		log.Info().Msg("no model configured, using fallback report")
		return Fallback(p)
	}

	doc, err := b.Generator.Generate(ctx, p)
	if err != nil {
		log.Warn().Err(err).Msg("model report failed, using fallback report")
		return Fallback(p)
	}

	log.Info().Str("model", doc.Model).Int("slides", len(doc.Slides)).Msg("model report generated")
	return doc
}
