package registry

import (
	"testing"

	"github.com/nextslide/deckengine/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CoversTextBearingTypesAndChart(t *testing.T) {
	r := New()
	for t2 := range models.TextBearingTypes {
		_, ok := r.Schema(t2)
		assert.True(t, ok, "missing schema for %s", t2)
	}
	_, ok := r.Schema(models.ComponentChart)
	assert.True(t, ok)
}

func TestRegistry_ApplyDefaults_FillsUnsetOnly(t *testing.T) {
	r := New()
	c := models.Component{Type: models.ComponentTitle, Props: map[string]any{"text": "Hello", "fontSize": float64(10)}}

	r.ApplyDefaults(&c)

	assert.Equal(t, float64(10), c.Props["fontSize"], "explicit value should not be overwritten")
	assert.Equal(t, "left", c.Props["align"], "unset field should receive its default")
}

func TestRegistry_ApplyDefaults_UnknownTypeNoop(t *testing.T) {
	r := New()
	c := models.Component{Type: "NotARealType", Props: map[string]any{"x": 1}}
	r.ApplyDefaults(&c)
	assert.Equal(t, map[string]any{"x": 1}, c.Props)
}

func TestRegistry_Types_IsSorted(t *testing.T) {
	r := New()
	types := r.Types()
	require.NotEmpty(t, types)
	for i := 1; i < len(types); i++ {
		assert.LessOrEqual(t, types[i-1], types[i])
	}
}

func TestComponentSchema_FieldByName(t *testing.T) {
	r := New()
	schema, ok := r.Schema(models.ComponentImage)
	require.True(t, ok)

	f, ok := schema.FieldByName("url")
	require.True(t, ok)
	assert.False(t, f.Required)

	_, ok = schema.FieldByName("nope")
	assert.False(t, ok)
}
