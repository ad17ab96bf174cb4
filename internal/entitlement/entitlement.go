// Package entitlement описывает закрытый набор типов абонементов
// и количество посещений, которое даёт каждый из них.
package entitlement

import (
	"errors"
	"fmt"
)

// PassType идентификатор типа абонемента, как он записан в журнале.
type PassType string

const (
	Pass5Day  PassType = "5day"
	Pass10Day PassType = "10day"
	Pass30Day PassType = "30day"
)

// WindowDays срок действия любого абонемента с даты активации.
const WindowDays = 30

// ErrUnknownPassType возвращается для типа, которого нет в таблице.
var ErrUnknownPassType = errors.New("unknown pass type")

// Entitlement то, что даёт абонемент.
// DurationOnly означает, что число посещений не ограничено, действует только срок.
type Entitlement struct {
	Punches      int
	DurationOnly bool
}

var table = map[PassType]Entitlement{
	Pass5Day:  {Punches: 5},
	Pass10Day: {Punches: 10},
	Pass30Day: {DurationOnly: true},
}

// Lookup возвращает entitlement для типа абонемента.
func Lookup(pt PassType) (Entitlement, error) {
	const op = "entitlement.Lookup"
	e, ok := table[pt]
	if !ok {
		return Entitlement{}, fmt.Errorf("%s: %q: %w", op, string(pt), ErrUnknownPassType)
	}
	return e, nil
}

// DaysFor возвращает число посещений для типа абонемента.
// ok=false для неизвестного типа и для абонемента, ограниченного только сроком.
func DaysFor(pt PassType) (days int, ok bool) {
	e, err := Lookup(pt)
	if err != nil || e.DurationOnly {
		return 0, false
	}
	return e.Punches, true
}

// Allows сообщает, можно ли ещё отметиться при used уже сделанных отметках.
func (e Entitlement) Allows(used int) bool {
	if e.DurationOnly {
		return true
	}
	return used < e.Punches
}

// Remaining возвращает остаток посещений. limited=false для абонемента без лимита посещений.
func (e Entitlement) Remaining(used int) (left int, limited bool) {
	if e.DurationOnly {
		return 0, false
	}
	left = e.Punches - used
	if left < 0 {
		left = 0
	}
	return left, true
}

// Types возвращает все известные типы абонементов.
func Types() []PassType {
	return []PassType{Pass5Day, Pass10Day, Pass30Day}
}

// Parse проверяет сырое значение из журнала на принадлежность закрытому набору.
func Parse(raw string) (PassType, error) {
	pt := PassType(raw)
	if _, err := Lookup(pt); err != nil {
		return pt, err
	}
	return pt, nil
}
