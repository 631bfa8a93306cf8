package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/theochan/humangen/models"
)

var hexColorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

const (
	minCanvasDim = 64
	maxCanvasDim = 2048

	minStrokeSize = 1
	maxStrokeSize = 40

	maxStrokes      = 1000
	maxStrokePoints = 1000

	// Black is always allowed alongside the prompt's 6 palette colors.
	blackColor = "#000000"
)

func ValidateCanvasSize(width, height int) error {
	if width < minCanvasDim || width > maxCanvasDim {
		return fmt.Errorf("canvas width must be between %d and %d", minCanvasDim, maxCanvasDim)
	}
	if height < minCanvasDim || height > maxCanvasDim {
		return fmt.Errorf("canvas height must be between %d and %d", minCanvasDim, maxCanvasDim)
	}
	return nil
}

// ValidateStrokes checks a submitted drawing against the active palette.
// Every stroke color must be one of the prompt's 6 colors or black; size
// and point counts are bounded to keep rendering cheap.
func ValidateStrokes(strokes []models.Stroke, palette []string) error {
	if len(strokes) == 0 {
		return errors.New("drawing has no strokes")
	}
	if len(strokes) > maxStrokes {
		return errors.New("too many strokes")
	}

	allowed := make(map[string]bool, len(palette)+1)
	allowed[blackColor] = true
	for _, color := range palette {
		allowed[strings.ToUpper(color)] = true
	}

	for _, stroke := range strokes {
		if len(stroke.Points) == 0 {
			return errors.New("stroke has no points")
		}
		if len(stroke.Points) > maxStrokePoints {
			return errors.New("stroke too long")
		}
		if stroke.Size < minStrokeSize || stroke.Size > maxStrokeSize {
			return errors.New("invalid stroke size")
		}
		if !hexColorRegex.MatchString(stroke.Color) {
			return errors.New("invalid stroke color")
		}
		if !allowed[strings.ToUpper(stroke.Color)] {
			return errors.New("stroke color not in palette")
		}
	}

	return nil
}
