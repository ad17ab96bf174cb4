// Package membership выбирает рабочий абонемент пользователя из снимка журнала
// и считает остаток посещений. Пакет не выполняет ввода-вывода и безопасен
// для одновременного вызова из любого числа горутин.
package membership

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/kvira-space/internal/entitlement"
	"github.com/magabrotheeeer/kvira-space/internal/lib/ledgerdate"
	"github.com/magabrotheeeer/kvira-space/internal/models"
)

// Resolve ищет рабочий абонемент пользователя username среди records на дату ref.
//
// Строки просматриваются в порядке журнала, побеждает первая подходящая:
//   - строка с некорректной датой даёт ValidationError и пропускается;
//   - строка без даты активации возвращается сразу как неактивированная;
//   - строка, у которой ref >= даты активации + 30 дней, просрочена и пропускается;
//   - строка с неизвестным типом даёт ValidationError и пропускается;
//   - строка с неизрасходованными посещениями возвращается как активная.
//
// Ошибки копятся по всем просмотренным строкам пользователя до момента возврата.
func Resolve(username string, records []models.MembershipRecord, ref time.Time) models.WorkingMembership {
	var errs []models.ValidationError
	today := ledgerdate.Day(ref)

	for i := range records {
		rec := records[i]
		if rec.Username != username {
			continue
		}

		activatedAt, activated, err := validateDates(rec)
		if err != nil {
			errs = append(errs, newValidationError(i, rec, err))
			continue
		}

		if !activated {
			return models.WorkingMembership{
				RowID:     ptr(i),
				Activated: ptr(false),
				Data:      &rec,
				Errors:    errs,
			}
		}

		if !today.Before(expiresAt(activatedAt)) {
			continue
		}

		ent, err := entitlement.Lookup(rec.PassType)
		if err != nil {
			errs = append(errs, newValidationError(i, rec, err))
			continue
		}

		if ent.Allows(len(ledgerdate.ParsePunches(rec.Punches))) {
			return models.WorkingMembership{
				RowID:     ptr(i),
				Activated: ptr(true),
				Data:      &rec,
				Errors:    errs,
			}
		}
	}

	return models.WorkingMembership{Errors: errs}
}

// RemainingPunches считает остаток посещений по снимку строки.
// limited=false для абонемента, ограниченного только сроком.
func RemainingPunches(rec models.MembershipRecord) (left int, limited bool, err error) {
	const op = "membership.RemainingPunches"
	ent, err := entitlement.Lookup(rec.PassType)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}
	left, limited = ent.Remaining(len(ledgerdate.ParsePunches(rec.Punches)))
	return left, limited, nil
}

// ExpirationDate дата окончания действия: дата активации + 30 дней.
// ok=false, если абонемент ещё не активирован.
func ExpirationDate(rec models.MembershipRecord) (exp time.Time, ok bool, err error) {
	const op = "membership.ExpirationDate"
	activatedAt, ok, err := ledgerdate.ParseOptional(rec.DateActivated)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return time.Time{}, false, nil
	}
	return expiresAt(activatedAt), true, nil
}

func expiresAt(activatedAt time.Time) time.Time {
	return activatedAt.AddDate(0, 0, entitlement.WindowDays)
}

// validateDates проверяет все заполненные поля дат строки.
func validateDates(rec models.MembershipRecord) (activatedAt time.Time, activated bool, err error) {
	activatedAt, activated, err = ledgerdate.ParseOptional(rec.DateActivated)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("date_activated: %w", err)
	}
	if _, _, err = ledgerdate.ParseOptional(rec.ExpirationDate); err != nil {
		return time.Time{}, false, fmt.Errorf("expiration_date: %w", err)
	}
	return activatedAt, activated, nil
}

func newValidationError(rowID int, rec models.MembershipRecord, err error) models.ValidationError {
	return models.ValidationError{
		Message: fmt.Sprintf("row %d of %s: %s", rowID, rec.Username, err),
		RowID:   rowID,
		Row:     &rec,
	}
}

func ptr[T any](v T) *T {
	return &v
}
