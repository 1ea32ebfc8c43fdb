package application

import (
	"github.com/wms-platform/execution-service/internal/domain"
	"github.com/wms-platform/execution-service/internal/voice"
)

// ToExecutionDTO converts a controller snapshot to ExecutionDTO
func ToExecutionDTO(s Snapshot) *ExecutionDTO {
	return &ExecutionDTO{
		ExecutionID:   s.ExecutionID,
		ListID:        s.ListID,
		UserName:      s.UserName,
		Operation:     string(s.Operation),
		CurrentStep:   string(s.Step),
		CurrentRow:    ToRowDTO(s.Row),
		Session:       ToSessionDTO(s.Session),
		Feedback:      s.Feedback,
		Cursor:        s.Cursor,
		RowCount:      s.RowCount,
		Progress:      ToProgressDTO(s.Progress),
		CommitPending: s.CommitPending,
		Completed:     s.Completed,
		Cancelled:     s.Cancelled,
		Paused:        s.Paused,
		StartedAt:     s.StartedAt,
	}
}

// ToRowDTO converts a domain ListRow to RowDTO
func ToRowDTO(row domain.ListRow) RowDTO {
	return RowDTO{
		RowID:            row.ID,
		ItemID:           row.ItemID,
		ItemCode:         row.ItemCode,
		ItemDescription:  row.ItemDescription,
		LocationID:       row.LocationID,
		LocationCode:     row.LocationCode,
		RequiredQuantity: row.RequiredQuantity,
		LotManaged:       row.LotManaged,
		SerialManaged:    row.SerialManaged,
	}
}

// ToSessionDTO converts an ExecutionSession to SessionDTO
func ToSessionDTO(s domain.ExecutionSession) SessionDTO {
	dto := SessionDTO{
		ScannedLocation: s.ScannedLocation,
		ConfirmedItem:   s.ConfirmedItem,
		Buffer:          s.Buffer,
		Lot:             s.Lot,
		SerialNumber:    s.SerialNumber,
		LastError:       s.LastError,
		PendingMismatch: s.PendingMismatch,
		Trace:           make([]string, 0, len(s.Trace)),
	}
	if s.QuantitySet {
		qty := s.Quantity
		dto.Quantity = &qty
	}
	for _, step := range s.Trace {
		dto.Trace = append(dto.Trace, string(step))
	}
	return dto
}

func ToProgressDTO(p domain.Progress) ProgressDTO {
	return ProgressDTO{
		ListID:        p.ListID,
		TotalRows:     p.TotalRows,
		CompletedRows: p.CompletedRows,
		Percent:       p.Percent,
	}
}

// ToVoiceStatusDTO converts a voice session to VoiceStatusDTO
func ToVoiceStatusDTO(s *voice.Session) *VoiceStatusDTO {
	if s == nil {
		return nil
	}
	dto := &VoiceStatusDTO{
		State:    string(s.State()),
		Enabled:  s.Enabled(),
		Speaking: s.Speaking(),
	}
	if u, ok := s.LastUtterance(); ok {
		dto.LastTranscript = u.Transcript
		dto.LastConfidence = u.Confidence
		dto.LastCommand = string(u.Command)
	}
	return dto
}

func ToInterpretationDTO(i voice.Interpretation) InterpretationDTO {
	return InterpretationDTO{
		Transcript: i.Transcript,
		Confidence: i.Confidence,
		Command:    string(i.Command),
		Value:      i.Value,
		Recognized: i.Recognized(),
	}
}
