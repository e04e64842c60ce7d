package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		input    FilterInput
		expected Query
	}{
		{
			name:     "empty form",
			input:    FilterInput{},
			expected: Query{},
		},
		{
			name:     "location only",
			input:    FilterInput{Location: "Austin"},
			expected: Query{Search: "Austin"},
		},
		{
			name:     "bounded range",
			input:    FilterInput{Location: "Austin", Price: "200000-500000"},
			expected: Query{Search: "Austin", MinPrice: intPtr(200000), MaxPrice: intPtr(500000)},
		},
		{
			name:     "open-ended range omits max",
			input:    FilterInput{Price: "500000-plus"},
			expected: Query{MinPrice: intPtr(500000)},
		},
		{
			name:     "zero lower bound is kept",
			input:    FilterInput{Price: "0-plus"},
			expected: Query{MinPrice: intPtr(0)},
		},
		{
			name:     "missing max token",
			input:    FilterInput{Price: "200000-"},
			expected: Query{MinPrice: intPtr(200000)},
		},
		{
			name:     "missing min token",
			input:    FilterInput{Price: "-500000"},
			expected: Query{MaxPrice: intPtr(500000)},
		},
		{
			name:     "garbage tokens dropped",
			input:    FilterInput{Price: "cheap-expensive"},
			expected: Query{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildQuery(tt.input))
		})
	}
}

func TestQueryValues(t *testing.T) {
	q := BuildQuery(FilterInput{Location: "Austin", Price: "200000-500000"})
	values := q.Values()

	assert.Equal(t, "Austin", values.Get("search"))
	assert.Equal(t, "200000", values.Get("minPrice"))
	assert.Equal(t, "500000", values.Get("maxPrice"))
}

func TestQueryValuesOmitsUnsetBounds(t *testing.T) {
	values := BuildQuery(FilterInput{Price: "500000-plus"}).Values()

	assert.Equal(t, "500000", values.Get("minPrice"))
	_, hasMax := values["maxPrice"]
	assert.False(t, hasMax)
	_, hasSearch := values["search"]
	assert.False(t, hasSearch)
}

func TestParseValuesRoundTrip(t *testing.T) {
	original := BuildQuery(FilterInput{Location: "Austin", Price: "0-plus"})

	parsed := ParseValues(original.Values())

	require.NotNil(t, parsed.MinPrice)
	assert.Equal(t, original, parsed)
}
