package teller

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wp "github.com/azargarov/bankpool"
	"github.com/azargarov/bankpool/ledger"
)

type recordingFlusher struct {
	mu      sync.Mutex
	flushes [][]ledger.Balance
	err     error
}

func (f *recordingFlusher) Flush(b []ledger.Balance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.flushes = append(f.flushes, b)
	return nil
}

func (f *recordingFlusher) last() []ledger.Balance {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.flushes) == 0 {
		return nil
	}
	return f.flushes[len(f.flushes)-1]
}

func newSession(t *testing.T, input string, opts ...ledger.Option) (*Session, *ledger.Ledger, *recordingFlusher, *bytes.Buffer) {
	t.Helper()

	p, err := wp.NewPool(wp.Options{Workers: 2})
	require.NoError(t, err)
	t.Cleanup(p.Stop)

	l := ledger.New(opts...)
	l.Provision("123", 0)
	l.Provision("234", 0)
	l.Provision("345", 200)
	l.Provision("456", 200)

	f := &recordingFlusher{}
	out := &bytes.Buffer{}
	return &Session{
		Ledger: l,
		Pool:   p,
		Index:  f,
		In:     strings.NewReader(input),
		Out:    out,
	}, l, f, out
}

func lines(ls ...string) string { return strings.Join(ls, "\n") + "\n" }

func bal(t *testing.T, l *ledger.Ledger, id string) int64 {
	t.Helper()
	b, err := l.BalanceOf(id)
	require.NoError(t, err)
	return b
}

func TestDepositAndExit(t *testing.T) {
	s, l, f, out := newSession(t, lines("1", "123", "50", "6"))

	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, int64(50), bal(t, l, "123"))
	assert.Contains(t, out.String(), "Account 123 balance: 50")
	assert.Contains(t, out.String(), "bye")
	assert.Contains(t, f.last(), ledger.Balance{ID: "123", Balance: 50})
}

func TestWithdrawFailureIsReported(t *testing.T) {
	s, l, _, out := newSession(t, lines("2", "123", "400", "6"))

	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, int64(0), bal(t, l, "123"))
	assert.Contains(t, out.String(), "withdraw failed")
}

func TestTransferFlushesImmediately(t *testing.T) {
	s, l, f, out := newSession(t, lines("3", "345", "123", "200"))

	// End of input also finishes the session.
	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, int64(0), bal(t, l, "345"))
	assert.Equal(t, int64(200), bal(t, l, "123"))
	require.Len(t, f.flushes, 2, "one flush after the transfer, one at exit")
	assert.Contains(t, f.flushes[0], ledger.Balance{ID: "123", Balance: 200})
	assert.Contains(t, out.String(), "Account 345 balance: 0")
}

func TestTransferUnknownAccount(t *testing.T) {
	s, _, f, out := newSession(t, lines("3", "345", "999", "10", "6"))

	require.NoError(t, s.Run(context.Background()))

	assert.Contains(t, out.String(), "Account 999 does not exist")
	assert.Len(t, f.flushes, 1, "only the exit flush")
}

func TestPayrollAndInterestBatches(t *testing.T) {
	s, l, _, out := newSession(t, lines(
		"4", "123", "234", "nope", "0",
		"5", "345", "0",
		"6",
	))

	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, ledger.DefaultPayroll, bal(t, l, "123"))
	assert.Equal(t, ledger.DefaultPayroll, bal(t, l, "234"))
	assert.Equal(t, int64(220), bal(t, l, "345"))
	assert.Contains(t, out.String(), "Account nope does not exist")
	assert.Contains(t, out.String(), "Running payroll for 2 accounts")
}

func TestInvalidInput(t *testing.T) {
	s, _, _, out := newSession(t, lines("9", "1", "123", "lots", "6"))

	require.NoError(t, s.Run(context.Background()))

	assert.Contains(t, out.String(), "Please choose again")
	assert.Contains(t, out.String(), `Invalid amount "lots"`)
}

func TestFlushErrorSurfaces(t *testing.T) {
	s, _, f, _ := newSession(t, lines("6"))
	f.err = errors.New("disk full")

	err := s.Run(context.Background())
	assert.ErrorContains(t, err, "disk full")
}

func TestHydratesFromIndex(t *testing.T) {
	s, l, _, _ := newSession(t, lines("1", "777", "5", "6"), ledger.WithIndex(fakeIndex{"777": 10}))

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, int64(15), bal(t, l, "777"))
}

func TestPendingDropsFinishedJobs(t *testing.T) {
	s, _, _, _ := newSession(t, "")
	ctx := context.Background()
	noop := func(context.Context) error { return nil }

	for range 5 {
		c, err := s.submit(ctx, "noop", false, noop)
		require.NoError(t, err)
		require.NoError(t, c.Wait(ctx))
	}
	_, err := s.submit(ctx, "noop", false, noop)
	require.NoError(t, err)

	assert.Len(t, s.pending, 1)
}

type fakeIndex map[string]int64

func (f fakeIndex) Get(id string) (int64, bool, error) {
	b, ok := f[id]
	return b, ok, nil
}
