package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextStep(t *testing.T) {
	plain := createTestRow()
	lot := createTestRow()
	lot.LotManaged = true
	serial := createTestRow()
	serial.SerialManaged = true

	tests := []struct {
		name string
		step Step
		row  ListRow
		want Step
	}{
		{"scan goes to item", StepScanLocation, plain, StepConfirmItem},
		{"item goes to quantity", StepConfirmItem, plain, StepInputQuantity},
		{"quantity skips lot and serial", StepInputQuantity, plain, StepConfirm},
		{"quantity goes to lot", StepInputQuantity, lot, StepInputLot},
		{"quantity goes to serial", StepInputQuantity, serial, StepInputSerial},
		{"lot skips serial", StepInputLot, lot, StepConfirm},
		{"confirm goes to done", StepConfirm, plain, StepDone},
		{"done stays done", StepDone, plain, StepDone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextStep(tt.step, tt.row))
		})
	}
}

func TestStepPath(t *testing.T) {
	row := createTestRow()
	row.LotManaged = true
	row.SerialManaged = true

	assert.Equal(t, []Step{
		StepScanLocation, StepConfirmItem, StepInputQuantity,
		StepInputLot, StepInputSerial, StepConfirm, StepDone,
	}, StepPath(row))
}

func TestStepValid(t *testing.T) {
	assert.True(t, StepInputLot.Valid())
	assert.True(t, StepDone.Valid())
	assert.False(t, Step("packing").Valid())
}
