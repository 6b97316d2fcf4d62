package format

import (
	"context"

	"github.com/rs/zerolog"

	"getnotes/internal/envelope"
)

// Formatter exposes Markdown behind the envelope boundary used by the
// editor sessions, the JSON API and the MCP tools.
type Formatter struct {
	log zerolog.Logger
}

func NewFormatter(log zerolog.Logger) *Formatter {
	return &Formatter{log: log.With().Str("component", "formatter").Logger()}
}

// FormatContent formats content. It fails only for input that is not text.
func (f *Formatter) FormatContent(ctx context.Context, content string) envelope.Envelope[string] {
	if err := ctx.Err(); err != nil {
		return envelope.Internal[string]("Failed to format note")
	}
	out, err := Markdown(content)
	if err != nil {
		f.log.Warn().Err(err).Int("content_len", len(content)).Msg("format rejected")
		return envelope.Invalid[string](err.Error())
	}
	return envelope.OK(out)
}
