package usecase

import (
	"context"
	"sync"
	"time"

	"sentinelnet/internal/core/domain"
	"sentinelnet/internal/core/port"
)

// BudgetLedger tracks the rolling daily query allowance per organization.
// Charges for the same organization are totally ordered by a per-org mutex,
// so concurrent reads can never overdraw the budget or lose a decrement.
type BudgetLedger struct {
	repo         port.BudgetRepository
	defaultQuota int
	window       time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	now func() time.Time
}

// NewBudgetLedger creates a ledger backed by repo. The defaultQuota is the
// allowance restored at each window reset.
func NewBudgetLedger(repo port.BudgetRepository, defaultQuota int, window time.Duration) *BudgetLedger {
	return &BudgetLedger{
		repo:         repo,
		defaultQuota: defaultQuota,
		window:       window,
		locks:        make(map[string]*sync.Mutex),
		now:          time.Now,
	}
}

// TryCharge atomically consumes one unit of the organization's allowance.
// A record is created on first charge; an expired window is reset to the
// default quota before charging. It returns false, without any state
// change, when the allowance is exhausted.
func (l *BudgetLedger) TryCharge(ctx context.Context, orgID string) (bool, error) {
	lock := l.orgLock(orgID)
	lock.Lock()
	defer lock.Unlock()

	now := l.now().UTC()
	rec, err := l.repo.Get(ctx, orgID)
	if err != nil {
		return false, err
	}
	if rec == nil {
		rec = &domain.BudgetRecord{OrgID: orgID, Remaining: l.defaultQuota}
		rec.WindowStart = now
		rec.WindowEnd = now.Add(l.window)
	} else if !now.Before(rec.WindowEnd) {
		rec.Remaining = l.defaultQuota
		rec.WindowStart = now
		rec.WindowEnd = now.Add(l.window)
	}

	if rec.Remaining <= 0 {
		return false, nil
	}
	rec.Remaining--
	if err = l.repo.Save(ctx, rec); err != nil {
		return false, err
	}
	return true, nil
}

// Remaining reports the organization's current allowance without charging.
// It accounts for a pending window reset.
func (l *BudgetLedger) Remaining(ctx context.Context, orgID string) (int, error) {
	lock := l.orgLock(orgID)
	lock.Lock()
	defer lock.Unlock()

	rec, err := l.repo.Get(ctx, orgID)
	if err != nil {
		return 0, err
	}
	if rec == nil || !l.now().UTC().Before(rec.WindowEnd) {
		return l.defaultQuota, nil
	}
	return rec.Remaining, nil
}

func (l *BudgetLedger) orgLock(orgID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[orgID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[orgID] = lock
	}
	return lock
}
