// Package ledger keeps account balances in memory with one lock per
// account, so operations on different accounts never wait for each other.
//
// A *Ledger is a shared handle: hand the same pointer to every job that
// needs it. Accounts enter the ledger through Provision or, when an Index
// is configured, by being loaded from it the first time they are
// referenced. They are never removed.
package ledger

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

const (
	// DefaultPayroll is the amount deposited by Payroll.
	DefaultPayroll int64 = 200

	// DefaultInterestDivisor is the divisor applied by PayInterest.
	DefaultInterestDivisor int64 = 10
)

var (
	ErrAccountNotFound   = errors.New("ledger: account not found")
	ErrInvalidAmount     = errors.New("ledger: invalid amount")
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")
)

// Index is the persistent store accounts are loaded from on first
// reference.
type Index interface {
	// Get returns the stored balance for id and whether it exists.
	Get(id string) (int64, bool, error)
}

// Balance is one entry of a Snapshot.
type Balance struct {
	ID      string
	Balance int64
}

type account struct {
	mu      sync.Mutex
	id      string
	balance int64
}

func (a *account) deposit(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: deposit of %d into %q", ErrInvalidAmount, amount, a.id)
	}
	if a.balance > 0 && amount > math.MaxInt64-a.balance {
		return fmt.Errorf("%w: deposit of %d into %q overflows balance %d", ErrInvalidAmount, amount, a.id, a.balance)
	}
	a.balance += amount
	return nil
}

func (a *account) checkWithdraw(amount int64) error {
	if amount < 0 {
		return fmt.Errorf("%w: withdrawal of %d from %q", ErrInvalidAmount, amount, a.id)
	}
	if a.balance < amount {
		return fmt.Errorf("%w: %q holds %d, need %d", ErrInsufficientFunds, a.id, a.balance, amount)
	}
	return nil
}

func (a *account) withdraw(amount int64) error {
	if err := a.checkWithdraw(amount); err != nil {
		return err
	}
	a.balance -= amount
	return nil
}

// Ledger maps account ids to individually locked balances.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[string]*account

	payroll         int64
	interestDivisor int64
	index           Index
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithIndex makes the ledger load unknown accounts from idx.
func WithIndex(idx Index) Option {
	return func(l *Ledger) { l.index = idx }
}

// WithPayroll sets the amount Payroll deposits.
func WithPayroll(amount int64) Option {
	return func(l *Ledger) { l.payroll = amount }
}

// WithInterestDivisor sets the divisor PayInterest applies to a balance.
func WithInterestDivisor(d int64) Option {
	return func(l *Ledger) { l.interestDivisor = d }
}

// New creates an empty ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		accounts:        make(map[string]*account),
		payroll:         DefaultPayroll,
		interestDivisor: DefaultInterestDivisor,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.interestDivisor <= 0 {
		l.interestDivisor = DefaultInterestDivisor
	}
	return l
}

// Provision inserts id with the given balance. An existing record keeps
// its identity and has its balance overwritten under its lock.
func (l *Ledger) Provision(id string, balance int64) {
	l.mu.Lock()
	a, ok := l.accounts[id]
	if !ok {
		l.accounts[id] = &account{id: id, balance: balance}
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	a.mu.Lock()
	a.balance = balance
	a.mu.Unlock()
}

// Contains reports whether id is held in memory. The index is not
// consulted.
func (l *Ledger) Contains(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.accounts[id]
	return ok
}

// Hydrate loads id from the index if it is not in memory yet. It reports
// whether the account is now present.
func (l *Ledger) Hydrate(id string) (bool, error) {
	a, err := l.lookup(id)
	if err != nil {
		return false, err
	}
	return a != nil, nil
}

// lookup returns the record for id, loading it from the index on first
// reference. A nil record with a nil error means the account is unknown.
func (l *Ledger) lookup(id string) (*account, error) {
	l.mu.RLock()
	a := l.accounts[id]
	l.mu.RUnlock()
	if a != nil || l.index == nil {
		return a, nil
	}

	balance, ok, err := l.index.Get(id)
	if err != nil {
		return nil, fmt.Errorf("ledger: load %q: %w", id, err)
	}
	if !ok {
		return nil, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// Another goroutine may have loaded or provisioned it meanwhile.
	if a = l.accounts[id]; a == nil {
		a = &account{id: id, balance: balance}
		l.accounts[id] = a
	}
	return a, nil
}

func (l *Ledger) get(id string) (*account, error) {
	a, err := l.lookup(id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("%w: %q", ErrAccountNotFound, id)
	}
	return a, nil
}

// Deposit adds amount to id. amount must be positive.
func (l *Ledger) Deposit(id string, amount int64) error {
	a, err := l.get(id)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.deposit(amount)
}

// Withdraw removes amount from id. amount must not be negative or exceed
// the balance.
func (l *Ledger) Withdraw(id string, amount int64) error {
	a, err := l.get(id)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.withdraw(amount)
}

// Transfer moves amount from one account to another.
//
// Both accounts are locked, in id order, for the whole operation: either
// the debit and the credit both happen or neither does, and no reader can
// observe one without the other. A zero amount fails with
// ErrInvalidAmount.
//
// The withdrawal is validated first: a transfer the source cannot cover
// fails with its own error even when the target does not exist.
func (l *Ledger) Transfer(amount int64, from, to string) error {
	src, err := l.get(from)
	if err != nil {
		return err
	}
	dst, err := l.get(to)
	if err != nil {
		src.mu.Lock()
		defer src.mu.Unlock()
		if werr := src.checkWithdraw(amount); werr != nil {
			return werr
		}
		return err
	}

	if src == dst {
		src.mu.Lock()
		defer src.mu.Unlock()
		if err := src.checkWithdraw(amount); err != nil {
			return err
		}
		if amount <= 0 {
			return fmt.Errorf("%w: transfer of %d", ErrInvalidAmount, amount)
		}
		return nil
	}

	first, second := src, dst
	if second.id < first.id {
		first, second = second, first
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if err := src.checkWithdraw(amount); err != nil {
		return err
	}
	if err := dst.deposit(amount); err != nil {
		return err
	}
	src.balance -= amount
	return nil
}

// Payroll deposits the configured payroll amount into id.
func (l *Ledger) Payroll(id string) error {
	return l.Deposit(id, l.payroll)
}

// PayInterest deposits balance / divisor, rounded down, into id. An
// account whose interest rounds to zero fails with ErrInvalidAmount.
func (l *Ledger) PayInterest(id string) error {
	a, err := l.get(id)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.deposit(a.balance / l.interestDivisor)
}

// BalanceOf returns the current balance of id.
func (l *Ledger) BalanceOf(id string) (int64, error) {
	a, err := l.get(id)
	if err != nil {
		return 0, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance, nil
}

// Snapshot copies every in-memory balance. The order is unspecified.
func (l *Ledger) Snapshot() []Balance {
	l.mu.RLock()
	accounts := make([]*account, 0, len(l.accounts))
	for _, a := range l.accounts {
		accounts = append(accounts, a)
	}
	l.mu.RUnlock()

	out := make([]Balance, 0, len(accounts))
	for _, a := range accounts {
		a.mu.Lock()
		out = append(out, Balance{ID: a.id, Balance: a.balance})
		a.mu.Unlock()
	}
	return out
}

// Len returns the number of accounts held in memory.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.accounts)
}
