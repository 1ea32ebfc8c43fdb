package application

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wms-platform/execution-service/internal/domain"
	"github.com/wms-platform/execution-service/internal/voice"
)

func TestVoiceDispatcherTranslate(t *testing.T) {
	number := voice.Interpretation{Command: voice.CommandNumber, Value: "5"}
	letter := voice.Interpretation{Command: voice.CommandLetter, Value: "A"}

	tests := []struct {
		name   string
		cmd    voice.Interpretation
		step   domain.Step
		paused bool
		want   Action
	}{
		{"digit at location", number, domain.StepScanLocation, false, input(domain.InputCheckDigit, "5")},
		{"digits at item", number, domain.StepConfirmItem, false, input(domain.InputSubmit, "5")},
		{"digits at quantity", number, domain.StepInputQuantity, false, input(domain.InputAppend, "5")},
		{"letter at lot", letter, domain.StepInputLot, false, input(domain.InputAppend, "A")},
		{"letter at quantity", letter, domain.StepInputQuantity, false, Action{Kind: ActionIgnore}},
		{"number at confirm", number, domain.StepConfirm, false, Action{Kind: ActionIgnore}},
		{"confirm", voice.Interpretation{Command: voice.CommandConfirm}, domain.StepConfirm, false, input(domain.InputConfirm, "")},
		{"cancel", voice.Interpretation{Command: voice.CommandCancel}, domain.StepConfirm, false, Action{Kind: ActionCancel}},
		{"forward", voice.Interpretation{Command: voice.CommandForward}, domain.StepScanLocation, false, Action{Kind: ActionNext}},
		{"back", voice.Interpretation{Command: voice.CommandBack}, domain.StepScanLocation, false, Action{Kind: ActionPrevious}},
		{"pause", voice.Interpretation{Command: voice.CommandPause}, domain.StepScanLocation, false, Action{Kind: ActionPause}},
		{"unrecognized", voice.Interpretation{Value: "buongiorno"}, domain.StepScanLocation, false, Action{Kind: ActionIgnore}},
		{"resume while paused", voice.Interpretation{Command: voice.CommandResume}, domain.StepScanLocation, true, Action{Kind: ActionResume}},
		{"help while paused", voice.Interpretation{Command: voice.CommandHelp}, domain.StepScanLocation, true, Action{Kind: ActionHelp}},
		{"digit while paused", number, domain.StepScanLocation, true, Action{Kind: ActionIgnore}},
		{"confirm while paused", voice.Interpretation{Command: voice.CommandConfirm}, domain.StepConfirm, true, Action{Kind: ActionIgnore}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VoiceDispatcher{}.Translate(tt.cmd, tt.step, tt.paused))
		})
	}
}
