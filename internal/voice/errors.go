package voice

import (
	"errors"
	"fmt"
)

// NoSpeechCode is the backend error code for a recognition that heard nothing
const NoSpeechCode = "no-speech"

var (
	ErrNoSpeechTimeout = errors.New("no speech detected")
	ErrNotListening    = errors.New("voice session is not listening")
	ErrNotPaused       = errors.New("voice session is not paused")
	ErrSessionClosed   = errors.New("voice session is closed")
	ErrAlreadyRunning  = errors.New("voice session is already running")
)

// RecognitionError is a non-recoverable backend failure. It stops listening.
type RecognitionError struct {
	Code string
	Err  error
}

func (e *RecognitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("speech recognition error %s: %v", e.Code, e.Err)
	}
	return "speech recognition error " + e.Code
}

func (e *RecognitionError) Unwrap() error {
	return e.Err
}
