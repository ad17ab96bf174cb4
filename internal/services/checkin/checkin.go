// Package checkin собирает ответы пользователю: статус абонемента, приветствие и отметку посещения.
package checkin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/kvira-space/internal/lib/ledgerdate"
	"github.com/magabrotheeeer/kvira-space/internal/lib/sl"
	"github.com/magabrotheeeer/kvira-space/internal/models"
	"github.com/magabrotheeeer/kvira-space/internal/services/membership"
	"github.com/magabrotheeeer/kvira-space/internal/services/punch"
	"github.com/magabrotheeeer/kvira-space/internal/services/text"
)

// Идентификаторы сообщений каталога текстов.
const (
	MsgHello            = "hello_msg"
	MsgNoPass           = "no_pass"
	MsgNotActivatedPass = "not_activated_pass"
	MsgMonthPass        = "month_pass"
	MsgDaysLeft         = "days_left"
	MsgExpDate          = "exp_date"
	MsgPunched          = "punched"
	MsgAlreadyPunched   = "already_punched"
	MsgPunchFailed      = "punch_failed"
)

// OutcomeNoPass у пользователя нет рабочего абонемента.
const OutcomeNoPass = "no_pass"

// Profiles каталог профилей пользователей.
type Profiles interface {
	GetOrCreate(ctx context.Context, userID int64, username string, defaultLang models.Lang) (models.UserProfile, error)
	Get(ctx context.Context, userID int64) (models.UserProfile, error)
}

// Records источник снимка журнала.
type Records interface {
	GetAllRecords(ctx context.Context) ([]models.MembershipRecord, error)
}

// Punches операции записи в журнал.
type Punches interface {
	CheckIn(ctx context.Context, rowID int, ref time.Time) punch.Outcome
	ActivateMembership(ctx context.Context, rowID int, ref time.Time) bool
}

// Texts каталог текстов.
type Texts interface {
	Get(id string, lang models.Lang) string
}

// Notifier сообщает администраторам об ошибках данных.
type Notifier interface {
	NotifyValidationErrors(ctx context.Context, username string, errs []models.ValidationError) error
}

// Metrics счётчики сервиса.
type Metrics interface {
	CheckIn(outcome string)
	ValidationErrors(n int)
}

// Reply ответ пользователю.
type Reply struct {
	Profile    models.UserProfile       `json:"profile"`
	Lines      []string                 `json:"lines"`
	Membership models.WorkingMembership `json:"membership"`
}

// Result результат отметки посещения.
type Result struct {
	Outcome string   `json:"outcome"`
	Lines   []string `json:"lines"`
}

// Service сценарии пользователя.
type Service struct {
	log      *slog.Logger
	profiles Profiles
	records  Records
	punches  Punches
	texts    Texts
	notifier Notifier
	metrics  Metrics
	loc      *time.Location
	now      func() time.Time
}

// New создает Service. Текущая дата берётся в часовом поясе loc.
func New(log *slog.Logger, profiles Profiles, records Records, punches Punches,
	texts Texts, notifier Notifier, metrics Metrics, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		log:      log,
		profiles: profiles,
		records:  records,
		punches:  punches,
		texts:    texts,
		notifier: notifier,
		metrics:  metrics,
		loc:      loc,
		now:      time.Now,
	}
}

// Today текущая календарная дата в часовом поясе сервиса.
func (s *Service) Today() time.Time {
	return ledgerdate.Day(s.now().In(s.loc))
}

// Start регистрирует пользователя и возвращает приветствие со статусом абонемента.
func (s *Service) Start(ctx context.Context, userID int64, username string, lang models.Lang) (Reply, error) {
	const op = "checkin.Start"
	profile, err := s.profiles.GetOrCreate(ctx, userID, username, lang)
	if err != nil {
		return Reply{}, fmt.Errorf("%s: %w", op, err)
	}

	wm, err := s.resolve(ctx, profile.Username)
	if err != nil {
		return Reply{}, fmt.Errorf("%s: %w", op, err)
	}
	lines := append([]string{s.texts.Get(MsgHello, profile.Lang)}, s.statusLines(wm, profile.Lang)...)
	return Reply{Profile: profile, Lines: lines, Membership: wm}, nil
}

// Status возвращает статус абонемента пользователя.
func (s *Service) Status(ctx context.Context, userID int64) (Reply, error) {
	const op = "checkin.Status"
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return Reply{}, fmt.Errorf("%s: %w", op, err)
	}

	wm, err := s.resolve(ctx, profile.Username)
	if err != nil {
		return Reply{}, fmt.Errorf("%s: %w", op, err)
	}
	return Reply{Profile: profile, Lines: s.statusLines(wm, profile.Lang), Membership: wm}, nil
}

// CheckIn отмечает посещение за сегодня. Неактивированный абонемент активируется первым визитом.
func (s *Service) CheckIn(ctx context.Context, userID int64) (Result, error) {
	const op = "checkin.CheckIn"
	log := s.log.With(sl.Op(op), slog.Int64("user_id", userID))

	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	wm, err := s.resolve(ctx, profile.Username)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	if !wm.Found() {
		s.metrics.CheckIn(OutcomeNoPass)
		return Result{Outcome: OutcomeNoPass, Lines: []string{s.texts.Get(MsgNoPass, profile.Lang)}}, nil
	}

	today := s.Today()
	rowID := *wm.RowID
	if !wm.IsActivated() {
		if !s.punches.ActivateMembership(ctx, rowID, today) {
			log.Error("failed to activate membership", slog.Int("row_id", rowID))
			return s.outcome(punch.OutcomeFailed, profile.Lang, nil), nil
		}
	}

	outcome := s.punches.CheckIn(ctx, rowID, today)
	if outcome != punch.OutcomePunched {
		return s.outcome(outcome, profile.Lang, nil), nil
	}

	fresh, err := s.resolve(ctx, profile.Username)
	if err != nil {
		log.Warn("failed to re-read membership after punch", sl.Err(err))
		return s.outcome(outcome, profile.Lang, nil), nil
	}
	return s.outcome(outcome, profile.Lang, s.statusLines(fresh, profile.Lang)), nil
}

func (s *Service) outcome(o punch.Outcome, lang models.Lang, status []string) Result {
	s.metrics.CheckIn(o.String())
	var id string
	switch o {
	case punch.OutcomePunched:
		id = MsgPunched
	case punch.OutcomeAlreadyPunched:
		id = MsgAlreadyPunched
	default:
		id = MsgPunchFailed
	}
	return Result{Outcome: o.String(), Lines: append([]string{s.texts.Get(id, lang)}, status...)}
}

// resolve ищет рабочий абонемент и сообщает администраторам об ошибках данных.
func (s *Service) resolve(ctx context.Context, username string) (models.WorkingMembership, error) {
	const op = "checkin.resolve"
	if username == "" {
		return models.WorkingMembership{}, nil
	}

	records, err := s.records.GetAllRecords(ctx)
	if err != nil {
		return models.WorkingMembership{}, fmt.Errorf("%s: %w", op, err)
	}

	wm := membership.Resolve(username, records, s.Today())
	if len(wm.Errors) > 0 {
		s.metrics.ValidationErrors(len(wm.Errors))
		for _, verr := range wm.Errors {
			s.log.Warn("malformed ledger row", sl.Op(op), slog.Int("row_id", verr.RowID), slog.Any("row", verr.Row), sl.Err(verr))
		}
		if err := s.notifier.NotifyValidationErrors(ctx, username, wm.Errors); err != nil {
			s.log.Error("failed to notify admins", sl.Op(op), slog.String("username", username), sl.Err(err))
		}
	}
	return wm, nil
}

// statusLines строки статуса для найденного абонемента.
func (s *Service) statusLines(wm models.WorkingMembership, lang models.Lang) []string {
	if !wm.Found() {
		return []string{s.texts.Get(MsgNoPass, lang)}
	}
	if !wm.IsActivated() {
		return []string{s.texts.Get(MsgNotActivatedPass, lang)}
	}

	var lines []string
	left, limited, err := membership.RemainingPunches(*wm.Data)
	switch {
	case err != nil:
		s.log.Error("failed to count remaining punches", slog.Int("row_id", *wm.RowID), sl.Err(err))
	case limited:
		lines = append(lines, text.Format(s.texts.Get(MsgDaysLeft, lang), left))
	default:
		lines = append(lines, s.texts.Get(MsgMonthPass, lang))
	}

	exp, ok, err := membership.ExpirationDate(*wm.Data)
	if err == nil && ok {
		lines = append(lines, text.Format(s.texts.Get(MsgExpDate, lang), ledgerdate.Format(exp)))
	}
	return lines
}
