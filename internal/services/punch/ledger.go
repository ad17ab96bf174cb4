// Package punch выполняет запись отметок посещений и активацию абонементов в журнал.
//
// Журнал не поддерживает атомарного добавления, поэтому любая последовательность
// чтение-изменение-запись выполняется под одной общей блокировкой Ledger.
// Блокировка удерживается на время внешнего ввода-вывода и ожидается без таймаута.
package punch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/kvira-space/internal/entitlement"
	"github.com/magabrotheeeer/kvira-space/internal/lib/ledgerdate"
	"github.com/magabrotheeeer/kvira-space/internal/lib/sl"
	"github.com/magabrotheeeer/kvira-space/internal/models"
)

// Store внешнее хранилище журнала. rowID — смещение строки (с нуля) в снимке GetAllRecords.
type Store interface {
	GetAllRecords(ctx context.Context) ([]models.MembershipRecord, error)
	UpdateCell(ctx context.Context, rowID int, column models.Column, value string) error
	AppendRecord(ctx context.Context, rec models.MembershipRecord) (int, error)
}

// Observer принимает время ожидания блокировки в секундах.
type Observer interface {
	Observe(float64)
}

// Outcome результат попытки отметиться.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomePunched
	OutcomeAlreadyPunched
)

func (o Outcome) String() string {
	switch o {
	case OutcomePunched:
		return "punched"
	case OutcomeAlreadyPunched:
		return "already_punched"
	default:
		return "failed"
	}
}

// Ledger владеет блокировкой журнала и клиентом хранилища.
// Создаётся один раз на процесс и передаётся обработчикам по ссылке.
type Ledger struct {
	mu       sync.Mutex
	store    Store
	log      *slog.Logger
	lockWait Observer
}

// NewLedger создает Ledger. lockWait может быть nil.
func NewLedger(store Store, log *slog.Logger, lockWait Observer) *Ledger {
	return &Ledger{
		store:    store,
		log:      log,
		lockWait: lockWait,
	}
}

// PunchDay добавляет ref в список отметок строки rowID без проверки на повтор.
// Возвращает false при любой ошибке хранилища, повтор не выполняется.
func (l *Ledger) PunchDay(ctx context.Context, rowID int, ref time.Time) bool {
	const op = "punch.PunchDay"
	unlock := l.lock()
	defer unlock()

	ctx = context.WithoutCancel(ctx)
	rec, err := l.readRow(ctx, rowID)
	if err != nil {
		l.logFailure(op, rowID, err)
		return false
	}
	if err := l.appendPunch(ctx, rowID, rec, ref); err != nil {
		l.logFailure(op, rowID, err)
		return false
	}
	return true
}

// CheckIn отмечает посещение с проверкой на повтор внутри блокировки:
// свежий список отметок перечитывается, и если последняя отметка
// приходится на день ref, запись не выполняется.
func (l *Ledger) CheckIn(ctx context.Context, rowID int, ref time.Time) Outcome {
	const op = "punch.CheckIn"
	unlock := l.lock()
	defer unlock()

	ctx = context.WithoutCancel(ctx)
	rec, err := l.readRow(ctx, rowID)
	if err != nil {
		l.logFailure(op, rowID, err)
		return OutcomeFailed
	}

	punches := ledgerdate.ParsePunches(rec.Punches)
	if n := len(punches); n > 0 && ledgerdate.SameDay(punches[n-1], ref) {
		l.log.Info("already punched today", slog.String("op", op), slog.Int("row_id", rowID))
		return OutcomeAlreadyPunched
	}

	if err := l.appendPunch(ctx, rowID, rec, ref); err != nil {
		l.logFailure(op, rowID, err)
		return OutcomeFailed
	}
	l.log.Info("punched", slog.String("op", op), slog.Int("row_id", rowID), slog.String("day", ledgerdate.Format(ref)))
	return OutcomePunched
}

// ActivateMembership записывает ref в date_activated строки rowID.
// Уже активированный абонемент не изменяется, результат — успех.
func (l *Ledger) ActivateMembership(ctx context.Context, rowID int, ref time.Time) bool {
	const op = "punch.ActivateMembership"
	unlock := l.lock()
	defer unlock()

	ctx = context.WithoutCancel(ctx)
	rec, err := l.readRow(ctx, rowID)
	if err != nil {
		l.logFailure(op, rowID, err)
		return false
	}
	_, activated, err := ledgerdate.ParseOptional(rec.DateActivated)
	if err != nil {
		l.logFailure(op, rowID, err)
		return false
	}
	if activated {
		return true
	}
	if err := l.store.UpdateCell(ctx, rowID, models.ColumnDateActivated, ledgerdate.Format(ref)); err != nil {
		l.logFailure(op, rowID, err)
		return false
	}
	l.log.Info("membership activated", slog.String("op", op), slog.Int("row_id", rowID))
	return true
}

// AddMembership добавляет в конец журнала купленный неактивированный абонемент.
// Тип абонемента проверяется по закрытому набору до записи.
func (l *Ledger) AddMembership(ctx context.Context, username, passType string) (int, error) {
	const op = "punch.AddMembership"
	pt, err := entitlement.Parse(passType)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if username == "" {
		return 0, fmt.Errorf("%s: empty username", op)
	}

	unlock := l.lock()
	defer unlock()

	rowID, err := l.store.AppendRecord(context.WithoutCancel(ctx), models.MembershipRecord{
		Username: username,
		PassType: pt,
	})
	if err != nil {
		l.logFailure(op, -1, err)
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	l.log.Info("membership added", slog.String("op", op), slog.Int("row_id", rowID), slog.String("pass_type", passType))
	return rowID, nil
}

func (l *Ledger) lock() func() {
	start := time.Now()
	l.mu.Lock()
	if l.lockWait != nil {
		l.lockWait.Observe(time.Since(start).Seconds())
	}
	return l.mu.Unlock
}

// readRow читает актуальную строку. Вызывается только под блокировкой.
func (l *Ledger) readRow(ctx context.Context, rowID int) (models.MembershipRecord, error) {
	records, err := l.store.GetAllRecords(ctx)
	if err != nil {
		return models.MembershipRecord{}, err
	}
	if rowID < 0 || rowID >= len(records) {
		return models.MembershipRecord{}, fmt.Errorf("row %d of %d: %w", rowID, len(records), models.ErrRowNotFound)
	}
	return records[rowID], nil
}

// appendPunch пишет полный список отметок с добавленным днём. Вызывается только под блокировкой.
func (l *Ledger) appendPunch(ctx context.Context, rowID int, rec models.MembershipRecord, ref time.Time) error {
	punches := append(ledgerdate.ParsePunches(rec.Punches), ledgerdate.Format(ref))
	return l.store.UpdateCell(ctx, rowID, models.ColumnPunches, ledgerdate.JoinPunches(punches))
}

func (l *Ledger) logFailure(op string, rowID int, err error) {
	l.log.Error("ledger write failed", slog.String("op", op), slog.Int("row_id", rowID), sl.Err(err))
}
