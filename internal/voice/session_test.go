package voice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeBackend struct {
	mu       sync.Mutex
	starts   int
	stops    int
	cancels  int
	spoken   []string
	startErr error
	speakFn  func(ctx context.Context, text string) error
	events   chan Event
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{events: make(chan Event, 16)}
}

func (b *fakeBackend) StartRecognition(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.starts++
	return b.startErr
}

func (b *fakeBackend) StopRecognition() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stops++
	return nil
}

func (b *fakeBackend) Events() <-chan Event { return b.events }

func (b *fakeBackend) Speak(ctx context.Context, text string) error {
	b.mu.Lock()
	b.spoken = append(b.spoken, text)
	fn := b.speakFn
	b.mu.Unlock()
	if fn != nil {
		return fn(ctx, text)
	}
	return nil
}

func (b *fakeBackend) CancelSpeech() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancels++
}

func (b *fakeBackend) startCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.starts
}

func testConfig() Config {
	return Config{
		Locale:             "it-IT",
		RestartDelay:       10 * time.Millisecond,
		NoSpeechRetryDelay: 30 * time.Millisecond,
	}
}

// startSession starts listening and runs the event loop until the test ends
func startSession(t *testing.T, backend *fakeBackend) *Session {
	t.Helper()
	s := NewSession(backend, newTestInterpreter(t, "it-IT", 0), testConfig(), nil, nil)
	require.NoError(t, s.Start(context.Background()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(context.Background())
	}()
	t.Cleanup(func() {
		_ = s.Close()
		<-done
	})
	return s
}

func TestSessionStart(t *testing.T) {
	backend := newFakeBackend()
	s := NewSession(backend, newTestInterpreter(t, "it-IT", 0), testConfig(), nil, nil)

	assert.Equal(t, StateIdle, s.State())
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, StateListening, s.State())
	assert.True(t, s.Enabled())

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 1, backend.startCount())

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSessionClosed)
}

func TestSessionStartFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.startErr = errors.New("microphone unavailable")
	s := NewSession(backend, newTestInterpreter(t, "it-IT", 0), testConfig(), nil, nil)

	err := s.Start(context.Background())
	var recErr *RecognitionError
	require.ErrorAs(t, err, &recErr)
	assert.False(t, s.Enabled())
	assert.Equal(t, StateIdle, s.State())
}

func TestSessionDeliversUtterances(t *testing.T) {
	backend := newFakeBackend()
	s := startSession(t, backend)

	backend.events <- Event{Type: EventStarted}
	backend.events <- Event{Type: EventResult, Transcript: "conferma", Confidence: 0.93}

	select {
	case u := <-s.Utterances():
		assert.Equal(t, CommandConfirm, u.Command)
		assert.Equal(t, 0.93, u.Confidence)
	case <-time.After(time.Second):
		t.Fatal("no utterance delivered")
	}

	last, ok := s.LastUtterance()
	require.True(t, ok)
	assert.Equal(t, "conferma", last.Transcript)
}

func TestSessionRestartsAfterEnd(t *testing.T) {
	backend := newFakeBackend()
	startSession(t, backend)

	backend.events <- Event{Type: EventEnded}

	assert.Eventually(t, func() bool { return backend.startCount() == 2 }, time.Second, 5*time.Millisecond)
}

func TestSessionNoSpeechRetriesOnce(t *testing.T) {
	backend := newFakeBackend()
	s := startSession(t, backend)

	backend.events <- Event{Type: EventError, Code: NoSpeechCode}
	backend.events <- Event{Type: EventEnded}

	assert.Eventually(t, func() bool { return backend.startCount() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * testConfig().NoSpeechRetryDelay)

	assert.Equal(t, 2, backend.startCount())
	assert.True(t, s.Enabled())
	assert.Equal(t, StateListening, s.State())
}

func TestSessionRecognitionErrorStops(t *testing.T) {
	backend := newFakeBackend()
	s := startSession(t, backend)

	backend.events <- Event{Type: EventError, Code: "network"}

	select {
	case err := <-s.Errors():
		var recErr *RecognitionError
		require.ErrorAs(t, err, &recErr)
		assert.Equal(t, "network", recErr.Code)
	case <-time.After(time.Second):
		t.Fatal("no recognition error delivered")
	}

	assert.False(t, s.Enabled())
	assert.Equal(t, StateIdle, s.State())

	backend.events <- Event{Type: EventEnded}
	time.Sleep(3 * testConfig().RestartDelay)
	assert.Equal(t, 1, backend.startCount())
}

func TestSessionStopSuppressesRestart(t *testing.T) {
	backend := newFakeBackend()
	s := startSession(t, backend)

	require.NoError(t, s.Stop())
	backend.events <- Event{Type: EventEnded}
	time.Sleep(3 * testConfig().RestartDelay)

	assert.Equal(t, 1, backend.startCount())
	assert.False(t, s.Enabled())
}

func TestSessionPauseResume(t *testing.T) {
	backend := newFakeBackend()
	s := startSession(t, backend)

	require.NoError(t, s.Pause())
	assert.Equal(t, StatePaused, s.State())
	assert.True(t, s.Enabled())
	assert.ErrorIs(t, s.Pause(), ErrNotListening)

	backend.events <- Event{Type: EventEnded}
	time.Sleep(3 * testConfig().RestartDelay)
	assert.Equal(t, 1, backend.startCount())

	require.NoError(t, s.Resume(context.Background()))
	assert.Equal(t, StateListening, s.State())
	assert.Equal(t, 2, backend.startCount())
	assert.ErrorIs(t, s.Resume(context.Background()), ErrNotPaused)
}

func TestSessionDropsResultsWhileSpeaking(t *testing.T) {
	backend := newFakeBackend()
	release := make(chan struct{})
	backend.speakFn = func(ctx context.Context, text string) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}
	s := startSession(t, backend)

	spoke := make(chan error, 1)
	go func() { spoke <- s.Speak(context.Background(), "Posizione A-12-05") }()
	require.Eventually(t, s.Speaking, time.Second, time.Millisecond)

	backend.events <- Event{Type: EventResult, Transcript: "posizione", Confidence: 0.8}
	require.Eventually(t, func() bool { return len(backend.events) == 0 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	require.NoError(t, <-spoke)

	backend.events <- Event{Type: EventResult, Transcript: "5", Confidence: 0.8}
	select {
	case u := <-s.Utterances():
		assert.Equal(t, CommandNumber, u.Command)
		assert.Equal(t, "5", u.Value)
	case <-time.After(time.Second):
		t.Fatal("no utterance delivered")
	}
}

func TestSessionSpeakInterruptsPrevious(t *testing.T) {
	backend := newFakeBackend()
	backend.speakFn = func(ctx context.Context, text string) error {
		if text == "first" {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	}
	s := startSession(t, backend)

	first := make(chan error, 1)
	go func() { first <- s.Speak(context.Background(), "first") }()
	require.Eventually(t, s.Speaking, time.Second, time.Millisecond)

	require.NoError(t, s.Speak(context.Background(), "second"))
	require.NoError(t, <-first)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, []string{"first", "second"}, backend.spoken)
	assert.Equal(t, 1, backend.cancels)
}

func TestSessionRunTwice(t *testing.T) {
	backend := newFakeBackend()
	s := startSession(t, backend)

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.running
	}, time.Second, time.Millisecond)
	assert.ErrorIs(t, s.Run(context.Background()), ErrAlreadyRunning)
}
