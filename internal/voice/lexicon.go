package voice

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lexicons/*.yaml
var lexiconFS embed.FS

// DefaultLocale is used when no locale is configured
const DefaultLocale = "it-IT"

// Prompt keys every lexicon must define
const (
	PromptLocation        = "location"
	PromptItem            = "item"
	PromptQuantity        = "quantity"
	PromptLot             = "lot"
	PromptSerial          = "serial"
	PromptConfirm         = "confirm"
	PromptMismatch        = "mismatch"
	PromptRowConfirmed    = "row_confirmed"
	PromptCountConfirmed  = "count_confirmed"
	PromptListCompleted   = "list_completed"
	PromptCancelled       = "cancelled"
	PromptPaused          = "paused"
	PromptResumed         = "resumed"
	PromptHelp            = "help"
	PromptInvalidDigit    = "invalid_digit"
	PromptInvalidQuantity = "invalid_quantity"
	PromptInvalidItem     = "invalid_item"
	PromptMissingLot      = "missing_lot"
	PromptMissingSerial   = "missing_serial"
	PromptNotNow          = "not_now"
	PromptClosed          = "closed"
	PromptInvalidInput    = "invalid_input"
	PromptCommitFailed    = "commit_failed"
)

var requiredPrompts = []string{
	PromptLocation, PromptItem, PromptQuantity, PromptLot, PromptSerial,
	PromptConfirm, PromptMismatch, PromptRowConfirmed, PromptCountConfirmed,
	PromptListCompleted, PromptCancelled, PromptPaused, PromptResumed, PromptHelp,
	PromptInvalidDigit, PromptInvalidQuantity, PromptInvalidItem, PromptMissingLot,
	PromptMissingSerial, PromptNotNow, PromptClosed, PromptInvalidInput, PromptCommitFailed,
}

// Synonym maps a phrase to a command
type Synonym struct {
	Phrase  string  `yaml:"phrase"`
	Command Command `yaml:"command"`
}

// Lexicon is the synonym table and prompt set of one locale. Synonyms are
// matched in file order.
type Lexicon struct {
	Locale   string            `yaml:"locale"`
	Synonyms []Synonym         `yaml:"synonyms"`
	Prompts  map[string]string `yaml:"prompts"`
}

// LoadLexicon reads an embedded lexicon. An empty locale selects DefaultLocale.
func LoadLexicon(locale string) (*Lexicon, error) {
	if locale == "" {
		locale = DefaultLocale
	}

	data, err := lexiconFS.ReadFile("lexicons/" + locale + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unsupported voice locale %q: %w", locale, err)
	}
	return ParseLexicon(data)
}

// ParseLexicon decodes and validates a YAML lexicon
func ParseLexicon(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon: %w", err)
	}
	if err := lex.validate(); err != nil {
		return nil, err
	}
	return &lex, nil
}

func (l *Lexicon) validate() error {
	if l.Locale == "" {
		return fmt.Errorf("lexicon has no locale")
	}
	if len(l.Synonyms) == 0 {
		return fmt.Errorf("lexicon %s has no synonyms", l.Locale)
	}

	for i := range l.Synonyms {
		syn := &l.Synonyms[i]
		if _, err := parseCommand(string(syn.Command)); err != nil {
			return fmt.Errorf("lexicon %s: %w", l.Locale, err)
		}
		syn.Phrase = normalize(syn.Phrase)
		if syn.Phrase == "" {
			return fmt.Errorf("lexicon %s: empty phrase for %s", l.Locale, syn.Command)
		}
	}

	for _, key := range requiredPrompts {
		if strings.TrimSpace(l.Prompts[key]) == "" {
			return fmt.Errorf("lexicon %s: missing prompt %q", l.Locale, key)
		}
	}
	return nil
}

// Prompt renders a prompt, replacing {name} placeholders from vars
func (l *Lexicon) Prompt(key string, vars map[string]string) string {
	text := l.Prompts[key]
	if len(vars) == 0 {
		return text
	}

	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
