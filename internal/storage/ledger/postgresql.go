// Package ledger реализует журнал абонементов и источник текстов сообщений
// на основе PostgreSQL. Строки журнала адресуются смещением (с нуля)
// в снимке, упорядоченном по порядку добавления.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/kvira-space/internal/entitlement"
	"github.com/magabrotheeeer/kvira-space/internal/models"
)

// ErrUnknownColumn колонка не входит в фиксированный набор журнала.
var ErrUnknownColumn = errors.New("unknown ledger column")

// Storage инкапсулирует соединение с PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.ledger.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет, что миграции применены.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'memberships'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table memberships missing or query error: %w", err)
	}
	return nil
}

// Ping проверяет доступность базы.
func (s *Storage) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Close закрывает соединение.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// GetAllRecords возвращает все строки журнала в порядке добавления.
func (s *Storage) GetAllRecords(ctx context.Context) ([]models.MembershipRecord, error) {
	const op = "storage.ledger.GetAllRecords"

	rows, err := s.DB.QueryContext(ctx, `SELECT username, pass_type, date_activated, expiration_date, punches
		FROM memberships ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	records := make([]models.MembershipRecord, 0)
	for rows.Next() {
		var (
			rec      models.MembershipRecord
			passType string
		)
		if err := rows.Scan(&rec.Username, &passType, &rec.DateActivated, &rec.ExpirationDate, &rec.Punches); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		rec.PassType = entitlement.PassType(passType)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return records, nil
}

// UpdateCell записывает value в колонку column строки со смещением rowID.
func (s *Storage) UpdateCell(ctx context.Context, rowID int, column models.Column, value string) error {
	const op = "storage.ledger.UpdateCell"

	if !writable(column) {
		return fmt.Errorf("%s: %q: %w", op, string(column), ErrUnknownColumn)
	}
	if rowID < 0 {
		return fmt.Errorf("%s: row %d: %w", op, rowID, models.ErrRowNotFound)
	}

	// Имя колонки берётся только из закрытого набора models.Columns.
	query := fmt.Sprintf(`UPDATE memberships SET %s = $1
		WHERE id = (SELECT id FROM memberships ORDER BY id OFFSET $2 LIMIT 1)`, column)
	result, err := s.DB.ExecContext(ctx, query, value, rowID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: row %d: %w", op, rowID, models.ErrRowNotFound)
	}
	return nil
}

// AppendRecord добавляет новую строку в конец журнала и возвращает её смещение.
func (s *Storage) AppendRecord(ctx context.Context, rec models.MembershipRecord) (int, error) {
	const op = "storage.ledger.AppendRecord"

	_, err := s.DB.ExecContext(ctx, `INSERT INTO memberships
		(username, pass_type, date_activated, expiration_date, punches)
		VALUES ($1, $2, $3, $4, $5)`,
		rec.Username, string(rec.PassType), rec.DateActivated, rec.ExpirationDate, rec.Punches)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var count int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM memberships`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count - 1, nil
}

// GetAllMessages возвращает каталог текстов сообщений целиком.
func (s *Storage) GetAllMessages(ctx context.Context) (models.TextCatalog, error) {
	const op = "storage.ledger.GetAllMessages"

	rows, err := s.DB.QueryContext(ctx, `SELECT message_id, lang, text FROM messages`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	catalog := make(models.TextCatalog)
	for rows.Next() {
		var id, lang, text string
		if err := rows.Scan(&id, &lang, &text); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if catalog[id] == nil {
			catalog[id] = make(map[models.Lang]string)
		}
		catalog[id][models.Lang(lang)] = text
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return catalog, nil
}

func writable(column models.Column) bool {
	for _, c := range models.Columns() {
		if c == column {
			return true
		}
	}
	return false
}
