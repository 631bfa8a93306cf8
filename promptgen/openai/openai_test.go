package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseColors_Valid(t *testing.T) {
	colors, err := parseColors(`["#FF0000","#00FF00","#0000FF","#FFFF00","#FF00FF","#00FFFF"]`)
	assert.NoError(t, err)
	assert.Len(t, colors, 6)

	// Leading whitespace from the model is tolerated.
	colors, err = parseColors("\n [\"#ff0000\",\"#00ff00\",\"#0000ff\",\"#ffff00\",\"#ff00ff\",\"#00ffff\"] ")
	assert.NoError(t, err)
	assert.Equal(t, "#ff0000", colors[0])
}

func TestParseColors_Invalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", "six nice colors coming right up"},
		{"wrong count", `["#FF0000","#00FF00"]`},
		{"bad hex", `["#FF0000","#00FF00","#0000FF","#FFFF00","#FF00FF","red"]`},
		{"missing hash", `["FF0000","00FF00","0000FF","FFFF00","FF00FF","00FFFF"]`},
		{"object not array", `{"colors":["#FF0000"]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseColors(tc.raw)
			assert.Error(t, err)
		})
	}
}
