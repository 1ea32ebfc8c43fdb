package application

import (
	"github.com/wms-platform/execution-service/internal/domain"
	"github.com/wms-platform/execution-service/internal/voice"
)

// ActionKind is what a voice command asks the execution to do
type ActionKind string

const (
	ActionIgnore   ActionKind = "ignore"
	ActionInput    ActionKind = "input"
	ActionCancel   ActionKind = "cancel"
	ActionRepeat   ActionKind = "repeat"
	ActionHelp     ActionKind = "help"
	ActionNext     ActionKind = "next"
	ActionPrevious ActionKind = "previous"
	ActionPause    ActionKind = "pause"
	ActionResume   ActionKind = "resume"
)

// Action is a translated voice command
type Action struct {
	Kind  ActionKind
	Input domain.Input
}

// VoiceDispatcher maps interpreted commands onto controller actions for the
// current step
type VoiceDispatcher struct{}

// Translate picks the action for cmd at step. While paused only resume,
// repeat and help are honoured.
func (VoiceDispatcher) Translate(cmd voice.Interpretation, step domain.Step, paused bool) Action {
	if paused {
		switch cmd.Command {
		case voice.CommandResume:
			return Action{Kind: ActionResume}
		case voice.CommandRepeat:
			return Action{Kind: ActionRepeat}
		case voice.CommandHelp:
			return Action{Kind: ActionHelp}
		default:
			return Action{Kind: ActionIgnore}
		}
	}

	switch cmd.Command {
	case voice.CommandConfirm:
		return input(domain.InputConfirm, "")
	case voice.CommandCancel:
		return Action{Kind: ActionCancel}
	case voice.CommandRepeat:
		return Action{Kind: ActionRepeat}
	case voice.CommandHelp:
		return Action{Kind: ActionHelp}
	case voice.CommandForward:
		return Action{Kind: ActionNext}
	case voice.CommandBack:
		return Action{Kind: ActionPrevious}
	case voice.CommandPause:
		return Action{Kind: ActionPause}
	case voice.CommandResume:
		return Action{Kind: ActionIgnore}
	case voice.CommandNumber:
		switch step {
		case domain.StepScanLocation:
			return input(domain.InputCheckDigit, cmd.Value)
		case domain.StepConfirmItem:
			return input(domain.InputSubmit, cmd.Value)
		case domain.StepInputQuantity, domain.StepInputLot, domain.StepInputSerial:
			return input(domain.InputAppend, cmd.Value)
		}
	case voice.CommandLetter:
		switch step {
		case domain.StepInputLot, domain.StepInputSerial:
			return input(domain.InputAppend, cmd.Value)
		}
	}
	return Action{Kind: ActionIgnore}
}

func input(kind domain.InputKind, value string) Action {
	return Action{Kind: ActionInput, Input: domain.Input{Kind: kind, Value: value}}
}
