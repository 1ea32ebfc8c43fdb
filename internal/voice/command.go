package voice

import (
	"fmt"
	"strconv"
)

// Command is a recognized operator command
type Command string

const (
	CommandNone    Command = ""
	CommandConfirm Command = "confirm"
	CommandCancel  Command = "cancel"
	CommandRepeat  Command = "repeat"
	CommandForward Command = "forward"
	CommandBack    Command = "back"
	CommandHelp    Command = "help"
	CommandPause   Command = "pause"
	CommandResume  Command = "resume"
	CommandNumber  Command = "number"
	CommandLetter  Command = "letter"
)

var lexiconCommands = map[Command]bool{
	CommandConfirm: true,
	CommandCancel:  true,
	CommandRepeat:  true,
	CommandForward: true,
	CommandBack:    true,
	CommandHelp:    true,
	CommandPause:   true,
	CommandResume:  true,
}

func parseCommand(s string) (Command, error) {
	c := Command(s)
	if !lexiconCommands[c] {
		return CommandNone, fmt.Errorf("unknown voice command %q", s)
	}
	return c, nil
}

// Interpretation is the outcome of interpreting one transcript. Value holds the
// digits for CommandNumber, the upper-cased letter for CommandLetter and the
// normalized transcript when nothing was recognized.
type Interpretation struct {
	Command    Command `json:"command"`
	Value      string  `json:"value,omitempty"`
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

// Recognized reports whether the transcript mapped to a command
func (i Interpretation) Recognized() bool {
	return i.Command != CommandNone
}

// Number returns the spoken number for CommandNumber
func (i Interpretation) Number() (int, bool) {
	if i.Command != CommandNumber {
		return 0, false
	}
	n, err := strconv.Atoi(i.Value)
	if err != nil {
		return 0, false
	}
	return n, true
}
