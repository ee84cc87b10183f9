package bench

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{"string verb", "SELECT run(%(count)s)", "SELECT run(1000)"},
		{"decimal verb", "SELECT run(%(count)d)", "SELECT run(1000)"},
		{"repeated", "SELECT %(count)s, %(count)d", "SELECT 1000, 1000"},
		{"literal percent", "SELECT 'a%%' LIKE x, run(%(count)s)", "SELECT 'a%' LIKE x, run(1000)"},
		{
			"multi statement",
			"DO $$ BEGIN PERFORM f(%(count)s); END $$;\nSELECT 1.5;",
			"DO $$ BEGIN PERFORM f(1000); END $$;\nSELECT 1.5;",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderTemplate(tt.tmpl, 1000)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderTemplateErrors(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
	}{
		{"no placeholder", "SELECT 1"},
		{"unknown name", "SELECT %(rows)s"},
		{"missing verb", "SELECT %(count)"},
		{"bad verb", "SELECT %(count)x"},
		{"unterminated", "SELECT %(count"},
		{"bare verb", "SELECT %s, %(count)s"},
		{"dangling percent", "SELECT %(count)s %"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RenderTemplate(tt.tmpl, 10)
			require.Error(t, err)
			assert.ErrorIs(t, err, NewError(KindConfig, CodeInvalidTemplate, ""))
		})
	}
}

func TestWorkloadSpecValidate(t *testing.T) {
	ok := WorkloadSpec{Template: CountPlaceholder, Count: 1, Levels: []int{1, 4}}
	require.NoError(t, ok.Validate())

	bad := []WorkloadSpec{
		{Template: CountPlaceholder, Count: 0, Levels: []int{1}},
		{Template: CountPlaceholder, Count: 1},
		{Template: CountPlaceholder, Count: 1, Levels: []int{2, 0}},
		{Template: "SELECT 1", Count: 1, Levels: []int{1}},
	}
	for _, w := range bad {
		assert.True(t, IsKind(w.Validate(), KindConfig), "%+v", w)
	}
}

func TestScalarFloat(t *testing.T) {
	v, err := Scalar{Value: " 12.5\n", Valid: true}.Float()
	require.NoError(t, err)
	assert.Equal(t, 12.5, v)

	_, err = Scalar{}.Float()
	assert.True(t, IsKind(err, KindQuery))

	_, err = Scalar{Value: "abc", Valid: true}.Float()
	assert.Error(t, err)
}
