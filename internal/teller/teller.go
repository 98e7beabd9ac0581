// Package teller runs the interactive bank menu. Every ledger operation
// is submitted to the worker pool as a job; balances are flushed to the
// index after each transfer and when the session ends.
package teller

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"
	"github.com/hashicorp/go-multierror"

	wp "github.com/azargarov/bankpool"
	"github.com/azargarov/bankpool/ledger"
)

const menu = `Choose an operation:
1. Deposit
2. Withdraw
3. Transfer
4. Payroll
5. Pay interest
6. Exit
`

// Submitter queues jobs. *workerpool.Pool implements it.
type Submitter interface {
	Submit(job wp.Job, urgent bool) (*wp.Completion, error)
}

// Flusher persists ledger snapshots. *index.Store implements it.
type Flusher interface {
	Flush([]ledger.Balance) error
}

// Session is one interactive run over In and Out.
type Session struct {
	Ledger *ledger.Ledger
	Pool   Submitter
	Index  Flusher

	In  io.Reader
	Out io.Writer

	outMu   sync.Mutex
	pending []*wp.Completion
}

// Run reads menu choices until Exit or end of input, then waits for the
// submitted jobs and flushes every balance.
func (s *Session) Run(ctx context.Context) error {
	logger := lg.FromContext(ctx)
	logger.Info("teller session started")

	sc := bufio.NewScanner(s.In)
	prompt := func(text string) (string, bool) {
		s.println(text)
		if !sc.Scan() {
			return "", false
		}
		return strings.TrimSpace(sc.Text()), true
	}

	for {
		choice, ok := prompt(menu)
		if !ok {
			break
		}
		var err error
		switch choice {
		case "1":
			err = s.single(ctx, prompt, "deposit", (*ledger.Ledger).Deposit)
		case "2":
			err = s.single(ctx, prompt, "withdraw", (*ledger.Ledger).Withdraw)
		case "3":
			err = s.transfer(ctx, prompt)
		case "4":
			err = s.batch(ctx, prompt, "payroll", (*ledger.Ledger).Payroll)
		case "5":
			err = s.batch(ctx, prompt, "interest", (*ledger.Ledger).PayInterest)
		case "6":
			return s.finish(ctx)
		default:
			s.println("Please choose again")
		}
		if err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return multierror.Append(fmt.Errorf("teller: read input: %w", err), s.finish(ctx)).ErrorOrNil()
	}
	return s.finish(ctx)
}

type promptFunc func(text string) (string, bool)

func (s *Session) single(ctx context.Context, prompt promptFunc, op string, apply func(*ledger.Ledger, string, int64) error) error {
	id, ok := prompt("Account:")
	if !ok {
		return nil
	}
	amount, ok := s.readAmount(prompt, "Amount:")
	if !ok {
		return nil
	}
	start := time.Now()
	if !s.present(id, start) {
		return nil
	}
	_, err := s.submit(ctx, op, true, func(context.Context) error {
		if err := apply(s.Ledger, id, amount); err != nil {
			s.printf("%s failed: %v\n", op, err)
			return err
		}
		s.reportBalance(id, start)
		return nil
	})
	return err
}

func (s *Session) transfer(ctx context.Context, prompt promptFunc) error {
	from, ok := prompt("Paying account:")
	if !ok {
		return nil
	}
	to, ok := prompt("Receiving account:")
	if !ok {
		return nil
	}
	amount, ok := s.readAmount(prompt, "Amount:")
	if !ok {
		return nil
	}
	start := time.Now()
	fromOK := s.present(from, start)
	toOK := s.present(to, start)
	if !fromOK || !toOK {
		return nil
	}

	c, err := s.submit(ctx, "transfer", true, func(context.Context) error {
		if err := s.Ledger.Transfer(amount, from, to); err != nil {
			s.printf("transfer failed: %v\n", err)
			return err
		}
		s.reportBalance(from, start)
		s.reportBalance(to, start)
		return nil
	})
	if err != nil {
		return err
	}
	// The job's own error is already reported; flush whatever state resulted.
	_ = c.Wait(ctx)
	return s.flush(ctx)
}

func (s *Session) batch(ctx context.Context, prompt promptFunc, op string, apply func(*ledger.Ledger, string) error) error {
	var ids []string
	for {
		id, ok := prompt("Account (0 to finish):")
		if !ok || id == "0" {
			break
		}
		if s.present(id, time.Now()) {
			ids = append(ids, id)
		}
	}
	s.printf("Running %s for %d accounts\n", op, len(ids))
	for _, id := range ids {
		start := time.Now()
		_, err := s.submit(ctx, op, false, func(context.Context) error {
			if err := apply(s.Ledger, id); err != nil {
				s.printf("%s for %s failed: %v\n", op, id, err)
				return err
			}
			s.reportBalance(id, start)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) submit(ctx context.Context, name string, urgent bool, fn wp.JobFunc) (*wp.Completion, error) {
	c, err := s.Pool.Submit(wp.Job{Name: name, Fn: fn, Meta: &wp.JobMeta{Ctx: ctx}}, urgent)
	if err != nil {
		return nil, fmt.Errorf("teller: submit %s: %w", name, err)
	}
	s.pending = append(prune(s.pending), c)
	return c, nil
}

// prune drops completions that have already resolved.
func prune(pending []*wp.Completion) []*wp.Completion {
	live := pending[:0]
	for _, c := range pending {
		select {
		case <-c.Done():
		default:
			live = append(live, c)
		}
	}
	clear(pending[len(live):])
	return live
}

// present loads id into the ledger if needed and reports a missing account.
func (s *Session) present(id string, start time.Time) bool {
	ok, err := s.Ledger.Hydrate(id)
	if err != nil {
		s.printf("Account %s could not be loaded: %v\n", id, err)
		return false
	}
	if !ok {
		s.printf("Account %s does not exist, took %s\n", id, time.Since(start))
	}
	return ok
}

func (s *Session) readAmount(prompt promptFunc, text string) (int64, bool) {
	raw, ok := prompt(text)
	if !ok {
		return 0, false
	}
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.printf("Invalid amount %q\n", raw)
		return 0, false
	}
	return amount, true
}

func (s *Session) reportBalance(id string, start time.Time) {
	balance, err := s.Ledger.BalanceOf(id)
	if err != nil {
		s.printf("Account %s: %v\n", id, err)
		return
	}
	s.printf("Account %s balance: %d, took %s\n", id, balance, time.Since(start))
}

// finish waits for every submitted job and flushes the ledger.
func (s *Session) finish(ctx context.Context) error {
	var result *multierror.Error
	for _, c := range s.pending {
		if err := c.Wait(ctx); err != nil && ctx.Err() != nil {
			result = multierror.Append(result, err)
			break
		}
	}
	s.pending = nil
	if err := s.flush(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	s.println("bye")
	return result.ErrorOrNil()
}

func (s *Session) flush(ctx context.Context) error {
	if s.Index == nil {
		return nil
	}
	snap := s.Ledger.Snapshot()
	if err := s.Index.Flush(snap); err != nil {
		return fmt.Errorf("teller: flush: %w", err)
	}
	lg.FromContext(ctx).Info("ledger flushed", lg.Int("accounts", len(snap)))
	return nil
}

func (s *Session) println(text string) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintln(s.Out, text)
}

func (s *Session) printf(format string, args ...any) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.Out, format, args...)
}
