package promptgen

import "context"

// DefaultPromptText and DefaultColors are served whenever no generated
// prompt covers the current instant, and used verbatim as the palette
// fallback when generation returns something unparseable.
const DefaultPromptText = "Draw something amazing!"

var DefaultColors = []string{"#FF0000", "#00FF00", "#0000FF", "#FFFF00", "#FF00FF", "#00FFFF"}

// Generator produces a daily drawing prompt and its 6-color palette.
type Generator interface {
	Generate(ctx context.Context) (promptText string, colors []string, err error)
}
