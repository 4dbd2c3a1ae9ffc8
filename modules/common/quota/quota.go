package quota

import (
	"context"
	"fmt"
	"log"
	"time"

	"fashion-ai-server/modules/common/apperr"
	"fashion-ai-server/modules/common/model"
)

// Kind - quota resource kind
type Kind string

const (
	KindScript Kind = "script"
	KindImage  Kind = "image"
)

// Daily caps per resource kind
const (
	DailyScriptLimit = 10
	DailyImageLimit  = 3
)

// Status - usage against today's cap
type Status struct {
	Used      int  `json:"used"`
	Limit     int  `json:"limit"`
	Remaining int  `json:"remaining"`
	CanUse    bool `json:"canUse"`
}

// Store - ledger persistence. The increment is a single atomic
// server-side operation, not read-then-write.
type Store interface {
	FetchQuotaRow(ctx context.Context, userID, date string) (*model.QuotaRow, error)
	IncrementQuota(ctx context.Context, userID, date, kind string) error
}

// Manager - per-user, per-day usage counters
type Manager struct {
	store Store
	now   func() time.Time
}

func NewManager(store Store) *Manager {
	return &Manager{store: store, now: time.Now}
}

// NewManagerWithClock - clock injection for day-boundary tests
func NewManagerWithClock(store Store, now func() time.Time) *Manager {
	return &Manager{store: store, now: now}
}

func (m *Manager) today() string {
	return m.now().UTC().Format("2006-01-02")
}

// Check - today's usage for the kind; a missing row means zero usage
func (m *Manager) Check(ctx context.Context, userID string, kind Kind) (*Status, error) {
	row, err := m.store.FetchQuotaRow(ctx, userID, m.today())
	if err != nil {
		log.Printf("❌ [Quota] Check error: %v", err)
		return nil, apperr.Wrap(apperr.TypeDBError, err)
	}

	used := 0
	if row != nil {
		if kind == KindScript {
			used = row.ScriptCount
		} else {
			used = row.ImageCount
		}
	}

	limit := Limit(kind)
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	return &Status{
		Used:      used,
		Limit:     limit,
		Remaining: remaining,
		CanUse:    remaining > 0,
	}, nil
}

// Increment - count one successful use for today
func (m *Manager) Increment(ctx context.Context, userID string, kind Kind) error {
	if err := m.store.IncrementQuota(ctx, userID, m.today(), string(kind)); err != nil {
		log.Printf("❌ [Quota] Increment error: %v", err)
		return apperr.Wrap(apperr.TypeDBError, err)
	}
	return nil
}

// Limit - daily cap for the kind
func Limit(kind Kind) int {
	if kind == KindScript {
		return DailyScriptLimit
	}
	return DailyImageLimit
}

// ExceededMessage - user-facing message when the daily cap is reached
func ExceededMessage(kind Kind, status *Status) string {
	typeName := "模特图生成"
	if kind == KindScript {
		typeName = "脚本生成"
	}
	return fmt.Sprintf("今日%s次数已用完 (%d/%d)，请明天再试", typeName, status.Used, status.Limit)
}
