package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLexicon(t *testing.T) {
	for _, locale := range []string{"it-IT", "en-US"} {
		t.Run(locale, func(t *testing.T) {
			lex, err := LoadLexicon(locale)
			require.NoError(t, err)
			assert.Equal(t, locale, lex.Locale)
			assert.NotEmpty(t, lex.Synonyms)
			for _, key := range requiredPrompts {
				assert.NotEmpty(t, lex.Prompts[key], key)
			}
		})
	}

	t.Run("default locale", func(t *testing.T) {
		lex, err := LoadLexicon("")
		require.NoError(t, err)
		assert.Equal(t, DefaultLocale, lex.Locale)
	})

	t.Run("unsupported locale", func(t *testing.T) {
		_, err := LoadLexicon("fr-FR")
		assert.Error(t, err)
	})
}

func TestLexiconOrderIsPreserved(t *testing.T) {
	lex, err := LoadLexicon("it-IT")
	require.NoError(t, err)

	assert.Equal(t, "conferma", lex.Synonyms[0].Phrase)
	assert.Equal(t, "continua", lex.Synonyms[len(lex.Synonyms)-1].Phrase)
}

func TestParseLexiconErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"invalid yaml", "locale: [it"},
		{"no locale", "synonyms:\n  - {phrase: ok, command: confirm}\n"},
		{"no synonyms", "locale: xx\n"},
		{"unknown command", "locale: xx\nsynonyms:\n  - {phrase: ok, command: dance}\n"},
		{"missing prompts", "locale: xx\nsynonyms:\n  - {phrase: ok, command: confirm}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLexicon([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLexiconPrompt(t *testing.T) {
	lex, err := LoadLexicon("it-IT")
	require.NoError(t, err)

	got := lex.Prompt(PromptMismatch, map[string]string{"required": "10", "entered": "7"})
	assert.Equal(t, "Attenzione. Quantità richiesta: 10. Quantità inserita: 7. Confermi?", got)
	assert.Equal(t, "In pausa.", lex.Prompt(PromptPaused, nil))
}
