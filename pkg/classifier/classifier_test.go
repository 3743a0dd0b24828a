package classifier

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// fakeRunner scores every class by how often its id appears in the input.
type fakeRunner struct {
	numLabels int
	err       error
	panicMsg  string
	destroyed bool
}

func (f *fakeRunner) Run(enc Encoding) ([]float32, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return nil, f.err
	}
	logits := make([]float32, f.numLabels)
	for i, id := range enc.InputIDs {
		if enc.AttentionMask[i] == 0 {
			continue
		}
		logits[int(id)%f.numLabels]++
	}
	return logits, nil
}

func (f *fakeRunner) Destroy() error {
	f.destroyed = true
	return nil
}

// blockingRunner stays inside Run until release is closed.
type blockingRunner struct {
	started   chan struct{}
	release   chan struct{}
	destroyed atomic.Bool
	inFlight  atomic.Bool
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (b *blockingRunner) Run(_ Encoding) ([]float32, error) {
	b.inFlight.Store(true)
	defer b.inFlight.Store(false)
	b.started <- struct{}{}
	<-b.release
	if b.destroyed.Load() {
		return nil, errors.New("session used after destroy")
	}
	return []float32{0, 1}, nil
}

func (b *blockingRunner) Destroy() error {
	if b.inFlight.Load() {
		return errors.New("destroyed while running")
	}
	b.destroyed.Store(true)
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestArgmax(t *testing.T) {
	tests := []struct {
		name     string
		scores   []float32
		expected int
	}{
		{name: "Single class", scores: []float32{0.3}, expected: 0},
		{name: "Highest wins", scores: []float32{0.1, 2.5, -1, 2.4}, expected: 1},
		{name: "Negative logits", scores: []float32{-3, -0.5, -2}, expected: 1},
		{name: "Ties resolve to the first index", scores: []float32{1, 4, 4, 0}, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			idx, err := Argmax(tt.scores)
			req.NoError(err)
			req.Equal(tt.expected, idx)
		})
	}

	t.Run("Empty scores", func(t *testing.T) {
		req := require.New(t)
		_, err := Argmax(nil)
		req.ErrorIs(err, ErrEmptyLogits)
	})
}

func TestClassifier_ClassifyIsDeterministic(t *testing.T) {
	req := require.New(t)
	tok := newTestTokenizer(t, 8)
	c := newClassifier(quietLogger(), tok, []sessionRunner{&fakeRunner{numLabels: 5}}, 5)

	first, err := c.Classify(context.Background(), "what is my balance")
	req.NoError(err)
	second, err := c.Classify(context.Background(), "what is my balance")
	req.NoError(err)

	req.Equal(first.LabelIndex, second.LabelIndex)
	req.Equal(first.Logits, second.Logits)
	req.Len(first.Logits, 5)
}

func TestClassifier_RunnerErrorIsPredictionFailure(t *testing.T) {
	req := require.New(t)
	tok := newTestTokenizer(t, 8)
	c := newClassifier(quietLogger(), tok, []sessionRunner{&fakeRunner{numLabels: 3, err: errors.New("bad tensor")}}, 3)

	_, err := c.Classify(context.Background(), "balance")

	req.ErrorIs(err, ErrPredictionFailed)
	req.Contains(err.Error(), "bad tensor")
}

func TestClassifier_PanicIsRecovered(t *testing.T) {
	req := require.New(t)
	tok := newTestTokenizer(t, 8)
	runner := &fakeRunner{numLabels: 3, panicMsg: "boom"}
	c := newClassifier(quietLogger(), tok, []sessionRunner{runner}, 3)

	_, err := c.Classify(context.Background(), "balance")
	req.ErrorIs(err, ErrPredictionFailed)

	// the session goes back to the pool after a panic
	runner.panicMsg = ""
	_, err = c.Classify(context.Background(), "balance")
	req.NoError(err)
}

func TestClassifier_ContextCancelledWhileWaitingForSession(t *testing.T) {
	req := require.New(t)
	tok := newTestTokenizer(t, 8)
	c := newClassifier(quietLogger(), tok, []sessionRunner{&fakeRunner{numLabels: 3}}, 3)

	held := <-c.sessions
	defer func() { c.sessions <- held }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Classify(ctx, "balance")
	req.ErrorIs(err, ErrPredictionFailed)
	req.ErrorIs(err, context.DeadlineExceeded)
}

func TestClassifier_Close(t *testing.T) {
	req := require.New(t)
	tok := newTestTokenizer(t, 8)
	runner := &fakeRunner{numLabels: 3}
	c := newClassifier(quietLogger(), tok, []sessionRunner{runner}, 3)

	req.True(c.IsReady())
	req.NoError(c.Close())
	req.NoError(c.Close())

	req.True(runner.destroyed)
	req.False(c.IsReady())
	_, err := c.Classify(context.Background(), "balance")
	req.ErrorIs(err, ErrClassifierUnavailable)
}

func TestClassifier_CloseWaitsForInFlightInference(t *testing.T) {
	req := require.New(t)
	tok := newTestTokenizer(t, 8)
	runner := newBlockingRunner()
	c := newClassifier(quietLogger(), tok, []sessionRunner{runner}, 2)

	classified := make(chan error, 1)
	go func() {
		_, err := c.Classify(context.Background(), "balance")
		classified <- err
	}()
	<-runner.started

	closed := make(chan error, 1)
	go func() { closed <- c.Close() }()

	select {
	case <-closed:
		req.Fail("Close returned while a session was still running")
	case <-time.After(50 * time.Millisecond):
	}
	req.False(runner.destroyed.Load())
	req.False(c.IsReady())

	close(runner.release)

	req.NoError(<-classified)
	req.NoError(<-closed)
	req.True(runner.destroyed.Load())
}

func TestClassifier_CloseReleasesWaiters(t *testing.T) {
	req := require.New(t)
	tok := newTestTokenizer(t, 8)
	runner := &fakeRunner{numLabels: 3}
	c := newClassifier(quietLogger(), tok, []sessionRunner{runner}, 3)

	held := <-c.sessions

	waiting := make(chan error, 1)
	go func() {
		_, err := c.Classify(context.Background(), "balance")
		waiting <- err
	}()

	closed := make(chan error, 1)
	go func() { closed <- c.Close() }()

	req.ErrorIs(<-waiting, ErrClassifierUnavailable)

	c.sessions <- held
	req.NoError(<-closed)
	req.True(runner.destroyed)
}

func TestClassifier_CloseGivesUpOnStuckSessions(t *testing.T) {
	req := require.New(t)
	tok := newTestTokenizer(t, 8)
	runner := newBlockingRunner()
	c := newClassifier(quietLogger(), tok, []sessionRunner{runner}, 2)
	c.drainTimeout = 20 * time.Millisecond

	classified := make(chan error, 1)
	go func() {
		_, err := c.Classify(context.Background(), "balance")
		classified <- err
	}()
	<-runner.started

	err := c.Close()
	req.ErrorIs(err, ErrSessionsBusy)
	req.False(runner.destroyed.Load())

	close(runner.release)
	req.NoError(<-classified)
}

func TestUnavailable(t *testing.T) {
	req := require.New(t)
	cause := errors.New("model not found")
	c := Unavailable(cause)

	_, err := c.Classify(context.Background(), "hello")

	req.ErrorIs(err, ErrClassifierUnavailable)
	req.ErrorIs(err, cause)
	req.False(c.IsReady())
	req.NoError(c.Close())
}

func TestWarmup(t *testing.T) {
	req := require.New(t)
	tok := newTestTokenizer(t, 8)
	c := newClassifier(quietLogger(), tok, []sessionRunner{&fakeRunner{numLabels: 2}}, 2)

	latency, err := Warmup(context.Background(), c, "what is my balance?")
	req.NoError(err)
	req.GreaterOrEqual(latency, time.Duration(0))

	_, err = Warmup(context.Background(), Unavailable(nil), "hello")
	req.ErrorIs(err, ErrClassifierUnavailable)
}
