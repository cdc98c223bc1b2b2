package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanTranscript(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"strips urls",
			"full recipe at https://example.com/x check it out",
			"full recipe at check it out",
		},
		{
			"strips mentions and hashtags",
			"thanks @chefmike for this one #cooking #viral",
			"thanks for this one",
		},
		{
			"strips bullets and collapses spaces",
			"• 2 cups   flour\n•  3 eggs",
			"2 cups flour\n3 eggs",
		},
		{
			"strips emoji",
			"so good 🔥🔥 trust me 😋",
			"so good trust me",
		},
		{
			"collapses blank line runs",
			"line one\n\n\n\n\nline two",
			"line one\n\nline two",
		},
		{
			"empty input",
			"   \n\n  ",
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanTranscript(tt.in))
		})
	}
}

func TestCleanTranscriptKeepsRecipeContent(t *testing.T) {
	raw := "Easy fried rice! 🍚\n2 cups rice\n2 eggs\nFry the rice with the eggs. Follow @wokstar #friedrice https://wok.example"

	cleaned := CleanTranscript(raw)

	assert.Contains(t, cleaned, "2 cups rice")
	assert.Contains(t, cleaned, "Fry the rice with the eggs.")
	assert.NotContains(t, cleaned, "@")
	assert.NotContains(t, cleaned, "#")
	assert.NotContains(t, cleaned, "http")
}
