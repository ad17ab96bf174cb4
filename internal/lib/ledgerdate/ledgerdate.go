// Package ledgerdate разбирает и форматирует даты в формате журнала абонементов (dd.mm.yyyy)
// и список отметок посещений, хранящийся в одной ячейке через запятую.
package ledgerdate

import (
	"fmt"
	"strings"
	"time"
)

const (
	// parseLayout принимает как "6.6.2024", так и "06.06.2024".
	parseLayout = "2.1.2006"
	// formatLayout используется при записи в журнал.
	formatLayout = "02.01.2006"
	// punchSeparator разделитель отметок в ячейке punches.
	punchSeparator = ", "
)

// Parse разбирает дату журнала. Возвращает дату в полночь UTC.
func Parse(value string) (time.Time, error) {
	const op = "ledgerdate.Parse"
	t, err := time.Parse(parseLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %q is not a dd.mm.yyyy date: %w", op, value, err)
	}
	return t, nil
}

// ParseOptional разбирает необязательное поле даты.
// Пустая строка означает отсутствие даты: ok=false и err=nil.
func ParseOptional(value string) (t time.Time, ok bool, err error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, false, nil
	}
	t, err = Parse(value)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// Format форматирует дату для записи в журнал (с ведущими нулями).
func Format(t time.Time) string {
	return t.Format(formatLayout)
}

// Day отбрасывает время суток, сохраняя календарную дату в её часовом поясе.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay сравнивает отметку из журнала с датой с точностью до дня.
// Если отметку не удаётся разобрать, сравнивается её текст с отформатированной датой.
func SameDay(token string, day time.Time) bool {
	t, err := Parse(token)
	if err != nil {
		return strings.TrimSpace(token) == Format(day)
	}
	return t.Equal(Day(day))
}

// ParsePunches разбирает ячейку с отметками посещений.
//
// Пустая строка или строка из пробелов означает отсутствие отметок.
// Строка без разделителя возвращается как есть, единственным элементом.
func ParsePunches(value string) []string {
	if strings.TrimSpace(value) == "" {
		return []string{}
	}
	if !strings.Contains(value, ",") {
		return []string{value}
	}
	parts := strings.Split(value, ",")
	punches := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		punches = append(punches, p)
	}
	return punches
}

// JoinPunches собирает отметки обратно в значение ячейки.
func JoinPunches(punches []string) string {
	return strings.Join(punches, punchSeparator)
}
