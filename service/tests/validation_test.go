package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/theochan/humangen/models"
	"github.com/theochan/humangen/service"
)

var testPalette = []string{"#FF0000", "#00FF00", "#0000FF", "#FFFF00", "#FF00FF", "#00FFFF"}

func stroke(color string, size float64, pointCount int) models.Stroke {
	points := make([]models.StrokePoint, pointCount)
	for i := range points {
		points[i] = models.StrokePoint{X: float64(i), Y: float64(i), Pressure: 0.5}
	}
	return models.Stroke{Points: points, Size: size, Color: color}
}

func TestValidateStrokes_Valid(t *testing.T) {
	strokes := []models.Stroke{
		stroke("#FF0000", 10, 5),
		stroke("#000000", 1, 1),  // black is always allowed
		stroke("#00ffff", 40, 2), // palette match is case-insensitive
	}
	assert.NoError(t, service.ValidateStrokes(strokes, testPalette))
}

func TestValidateStrokes_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		strokes []models.Stroke
	}{
		{"empty drawing", []models.Stroke{}},
		{"color outside palette", []models.Stroke{stroke("#123456", 10, 5)}},
		{"malformed color", []models.Stroke{stroke("red", 10, 5)}},
		{"size too small", []models.Stroke{stroke("#FF0000", 0.5, 5)}},
		{"size too large", []models.Stroke{stroke("#FF0000", 41, 5)}},
		{"stroke with no points", []models.Stroke{stroke("#FF0000", 10, 0)}},
		{"stroke too long", []models.Stroke{stroke("#FF0000", 10, 1001)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, service.ValidateStrokes(tc.strokes, testPalette))
		})
	}
}

func TestValidateStrokes_TooManyStrokes(t *testing.T) {
	strokes := make([]models.Stroke, 1001)
	for i := range strokes {
		strokes[i] = stroke("#FF0000", 10, 2)
	}
	assert.Error(t, service.ValidateStrokes(strokes, testPalette))
}

func TestValidateCanvasSize(t *testing.T) {
	assert.NoError(t, service.ValidateCanvasSize(400, 400))
	assert.NoError(t, service.ValidateCanvasSize(64, 2048))

	assert.Error(t, service.ValidateCanvasSize(63, 400))
	assert.Error(t, service.ValidateCanvasSize(400, 2049))
	assert.Error(t, service.ValidateCanvasSize(0, 0))
	assert.Error(t, service.ValidateCanvasSize(-10, 400))
}
