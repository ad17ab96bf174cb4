// Package models содержит доменные структуры: строку журнала абонементов,
// результат поиска рабочего абонемента, профиль пользователя и каталог текстов.
package models

import (
	"errors"

	"github.com/magabrotheeeer/kvira-space/internal/entitlement"
)

// ErrRowNotFound строки журнала с таким смещением нет.
var ErrRowNotFound = errors.New("ledger row not found")

// Column имя колонки журнала абонементов.
type Column string

// Колонки журнала в порядке их следования.
const (
	ColumnUsername       Column = "username"
	ColumnPassType       Column = "pass_type"
	ColumnDateActivated  Column = "date_activated"
	ColumnExpirationDate Column = "expiration_date"
	ColumnPunches        Column = "punches"
)

// Columns возвращает колонки журнала в фиксированном порядке.
func Columns() []Column {
	return []Column{ColumnUsername, ColumnPassType, ColumnDateActivated, ColumnExpirationDate, ColumnPunches}
}

// MembershipRecord строка журнала абонементов.
// Даты и отметки хранятся так, как они записаны в журнале, и проверяются при разборе.
// Пустая строка в поле даты означает отсутствие значения.
type MembershipRecord struct {
	Username       string               `json:"username"`
	PassType       entitlement.PassType `json:"pass_type"`
	DateActivated  string               `json:"date_activated"`
	ExpirationDate string               `json:"expiration_date"`
	Punches        string               `json:"punches"`
}

// ValidationError ошибка данных в строке журнала. Не прерывает поиск, строка просто исключается.
type ValidationError struct {
	Message string            `json:"message"`
	RowID   int               `json:"row_id"`
	Row     *MembershipRecord `json:"row,omitempty"`
}

func (e ValidationError) Error() string {
	return e.Message
}

// WorkingMembership результат поиска рабочего абонемента пользователя.
// RowID == nil означает, что подходящего абонемента нет.
type WorkingMembership struct {
	RowID     *int              `json:"row_id"`
	Activated *bool             `json:"activated"`
	Data      *MembershipRecord `json:"data,omitempty"`
	Errors    []ValidationError `json:"errors,omitempty"`
}

// Found сообщает, найден ли абонемент.
func (w WorkingMembership) Found() bool {
	return w.RowID != nil
}

// IsActivated сообщает, что найденный абонемент уже активирован.
func (w WorkingMembership) IsActivated() bool {
	return w.Activated != nil && *w.Activated
}
