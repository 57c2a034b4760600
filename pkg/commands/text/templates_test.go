package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLongDesc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "surrounding whitespace",
			input:    "   Computes selectors.   ",
			expected: "Computes selectors.",
		},
		{
			name: "multiline keeps inner indentation",
			input: `
				Applies manifests to a diamond.
				Prints the loupe.
			`,
			expected: "Applies manifests to a diamond.\n\t\t\t\tPrints the loupe.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, LongDesc(tc.input))
		})
	}
}

func TestExamples(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "single line",
			input:    "   diamondctl selector 'owner()'",
			expected: "  diamondctl selector 'owner()'",
		},
		{
			name: "multiline",
			input: `
				# Plan a bootstrap
				diamondctl cut plan -m bootstrap.yaml

				# Plan an upgrade on top of it
				diamondctl cut plan -m bootstrap.yaml -m upgrade.toml
			`,
			expected: "  # Plan a bootstrap\n  diamondctl cut plan -m bootstrap.yaml\n  \n  # Plan an upgrade on top of it\n  diamondctl cut plan -m bootstrap.yaml -m upgrade.toml",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, Examples(tc.input))
		})
	}
}

func TestIndentation(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "  ", Indentation, "Indentation should be two spaces")
}
