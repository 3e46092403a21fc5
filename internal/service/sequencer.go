package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/clock"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const (
	numberSuffixDigits = 5
	defaultMaxAttempts = 5
)

// Locker provides mutual exclusion per key across every process issuing
// ticket numbers.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// LocalLocker serializes callers inside one process only.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocalLocker builds a LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: map[string]*sync.Mutex{}}
}

// Lock blocks until key is free.
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	if err := ctx.Err(); err != nil {
		m.Unlock()
		return nil, err
	}
	return m.Unlock, nil
}

// NumberPrefix is the monthly namespace T{YY}{MM} of t.
func NumberPrefix(t time.Time) string {
	return fmt.Sprintf("T%02d%02d", t.Year()%100, int(t.Month()))
}

// FormatNumber renders the n-th number of a namespace.
func FormatNumber(prefix string, n int) string {
	return fmt.Sprintf("%s%0*d", prefix, numberSuffixDigits, n)
}

// numberSuffix parses the counter following prefix.
func numberSuffix(number, prefix string) (int, error) {
	if !strings.HasPrefix(number, prefix) {
		return 0, fmt.Errorf("number %q outside namespace %q", number, prefix)
	}
	return strconv.Atoi(number[len(prefix):])
}

// Sequencer issues ticket numbers T{YY}{MM}{NNNNN}. The counter restarts at
// 00001 each month and never reuses a number, soft-deleted tickets included.
type Sequencer struct {
	tickets     repository.TicketRepository
	tx          repository.TxManager
	locker      Locker
	clock       clock.Clock
	location    *time.Location
	maxAttempts int
	logger      *zap.Logger
}

// SequencerDependencies bundles collaborators for the sequencer.
type SequencerDependencies struct {
	TicketRepo  repository.TicketRepository
	TxManager   repository.TxManager
	Locker      Locker
	Clock       clock.Clock
	Location    *time.Location
	MaxAttempts int
	Logger      *zap.Logger
}

// NewSequencer constructs the sequencer.
func NewSequencer(deps SequencerDependencies) *Sequencer {
	s := &Sequencer{
		tickets:     deps.TicketRepo,
		tx:          deps.TxManager,
		locker:      deps.Locker,
		clock:       orReal(deps.Clock),
		location:    deps.Location,
		maxAttempts: deps.MaxAttempts,
		logger:      orNop(deps.Logger),
	}
	if s.locker == nil {
		s.locker = NewLocalLocker()
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = defaultMaxAttempts
	}
	return s
}

func (s *Sequencer) prefix() string {
	return NumberPrefix(s.clock.Now().In(s.location))
}

// Next returns the next free number of the current month. It does not
// reserve it; use Issue to allocate and persist atomically.
func (s *Sequencer) Next(ctx context.Context) (string, error) {
	return s.next(ctx, s.prefix())
}

func (s *Sequencer) next(ctx context.Context, prefix string) (string, error) {
	latest, err := s.tickets.MaxNumberWithPrefix(ctx, prefix)
	if err != nil {
		return "", apperrors.NewUpstreamFailure("read latest ticket number", err)
	}

	n := 1
	if latest != "" {
		last, err := numberSuffix(latest, prefix)
		if err != nil {
			return "", apperrors.NewUpstreamFailure("parse latest ticket number", err)
		}
		n = last + 1
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		candidate := FormatNumber(prefix, n+attempt)
		exists, err := s.tickets.ExistsNumber(ctx, candidate)
		if err != nil {
			return "", apperrors.NewUpstreamFailure("check ticket number", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", apperrors.NewUpstreamFailure("no free ticket number", nil)
}

// Issue allocates a number and hands it to persist inside one transaction
// while holding the month lock. A unique violation or Conflict from persist
// regenerates the number; after MaxAttempts tries Issue fails with
// UpstreamFailure.
func (s *Sequencer) Issue(ctx context.Context, persist func(ctx context.Context, number string) error) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		prefix := s.prefix()
		var (
			number  string
			release func()
		)

		err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
			unlock, err := s.locker.Lock(txCtx, "ticket-number:"+prefix)
			if err != nil {
				return apperrors.NewUpstreamFailure("acquire ticket number lock", err)
			}
			release = unlock

			number, err = s.next(txCtx, prefix)
			if err != nil {
				return err
			}
			return persist(txCtx, number)
		})
		if release != nil {
			release()
		}

		if err == nil {
			return number, nil
		}
		if !repository.IsUniqueViolation(err) && !apperrors.IsCode(err, apperrors.CodeConflict) {
			return "", err
		}
		lastErr = err
		s.logger.Warn("ticket number collision; retrying",
			zap.String("number", number),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return "", apperrors.NewUpstreamFailure("could not allocate a ticket number", lastErr)
}
