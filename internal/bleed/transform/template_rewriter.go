package transform

import (
	"context"
	"fmt"

	"bleedengine/internal/bleed/domain"
)

// templateFrames produce deterministic rewrites when no external collaborator
// is configured. Each frame mirrors its vector's narrative lens.
var templateFrames = map[domain.Vector]struct {
	title string
	body  string
}{
	domain.VectorCommerce:     {"Markets stir: %s", "Traders in %s speak of distant upheaval. %s Prices shift before anyone can say why."},
	domain.VectorLanguage:     {"A word arrives: %s", "A phrase no one in %s coined is suddenly on every tongue. %s Its origin is argued in taverns."},
	domain.VectorMemory:       {"Remembered, somehow: %s", "People across %s wake with borrowed grief. %s The memory belongs to no one here."},
	domain.VectorResonance:    {"The ground answers: %s", "Bells in %s ring without ringers. %s Something far away has struck a chord."},
	domain.VectorArchitecture: {"Stone shifts: %s", "Masons in %s find their walls subtly changed. %s Blueprints no longer match what stands."},
	domain.VectorDream:        {"Dreamt in common: %s", "Sleepers across %s share one dream. %s They wake certain it happened elsewhere."},
	domain.VectorDesire:       {"A new hunger: %s", "A longing spreads through %s that nothing local explains. %s It points somewhere else."},
}

// TemplateRewriter is a deterministic offline rewrite collaborator.
type TemplateRewriter struct{}

// Rewrite frames the payload through the vector's template.
func (TemplateRewriter) Rewrite(_ context.Context, request RewriteRequest) (RewriteResult, error) {
	frame, ok := templateFrames[request.Vector]
	if !ok {
		return RewriteResult{}, fmt.Errorf("invalid vector %q", request.Vector)
	}
	destination := request.DestinationWorld
	if destination == "" {
		destination = "the city"
	}
	return RewriteResult{
		Title: fmt.Sprintf(frame.title, request.Title),
		Body:  fmt.Sprintf(frame.body, destination, request.Body),
	}, nil
}

var _ Rewriter = TemplateRewriter{}
