package voice

import (
	"regexp"
	"strconv"
	"strings"
)

var digitRun = regexp.MustCompile(`\d+`)

// Interpreter turns recognized speech into commands
type Interpreter struct {
	lexicon       *Lexicon
	minConfidence float64
}

// NewInterpreter creates an interpreter. A positive minConfidence makes
// lower-confidence transcripts unrecognized.
func NewInterpreter(lexicon *Lexicon, minConfidence float64) *Interpreter {
	return &Interpreter{lexicon: lexicon, minConfidence: minConfidence}
}

func (i *Interpreter) Lexicon() *Lexicon { return i.lexicon }

// Interpret applies, in order: the synonym table (a phrase anywhere in the
// transcript), the first digit run, a single letter a-z. The first rule that
// matches wins.
func (i *Interpreter) Interpret(transcript string, confidence float64) Interpretation {
	normalized := normalize(transcript)
	result := Interpretation{Transcript: transcript, Confidence: confidence, Value: normalized}

	if normalized == "" {
		return result
	}
	if i.minConfidence > 0 && confidence < i.minConfidence {
		return result
	}

	for _, syn := range i.lexicon.Synonyms {
		if strings.Contains(normalized, syn.Phrase) {
			result.Command = syn.Command
			result.Value = ""
			return result
		}
	}

	if digits := digitRun.FindString(normalized); digits != "" {
		if n, err := strconv.Atoi(digits); err == nil {
			result.Command = CommandNumber
			result.Value = strconv.Itoa(n)
			return result
		}
	}

	if len(normalized) == 1 && normalized[0] >= 'a' && normalized[0] <= 'z' {
		result.Command = CommandLetter
		result.Value = strings.ToUpper(normalized)
		return result
	}

	return result
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
