// Package notify публикует уведомления для чатов администраторов.
// Доставка в чаты выполняется потребителем очереди и в этот сервис не входит.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/kvira-space/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/kvira-space/internal/lib/sl"
	"github.com/magabrotheeeer/kvira-space/internal/models"
)

const (
	// AdminChatsKey множество id чатов администраторов.
	AdminChatsKey = "admin_chats"
	// ReportedErrorsKey множество ошибок данных, о которых администраторы уже знают.
	ReportedErrorsKey = "reported_errors"
)

// ChatStore хранилище множеств: чаты администраторов и уже отправленные ошибки.
type ChatStore interface {
	AddToSet(ctx context.Context, key, member string) error
	AddNewToSet(ctx context.Context, key, member string) (bool, error)
	MembersOf(ctx context.Context, key string) ([]string, error)
}

// AdminNotification сообщение в очереди уведомлений.
type AdminNotification struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier рассылает уведомления по всем чатам администраторов.
type Notifier struct {
	chats  ChatStore
	ch     rabbitmq.Channel
	policy rabbitmq.RetryPolicy
	log    *slog.Logger
	now    func() time.Time
}

// NewNotifier создает Notifier. Если ch == nil, уведомления только пишутся в лог.
func NewNotifier(chats ChatStore, ch rabbitmq.Channel, policy rabbitmq.RetryPolicy, log *slog.Logger) *Notifier {
	return &Notifier{
		chats:  chats,
		ch:     ch,
		policy: policy,
		log:    log,
		now:    time.Now,
	}
}

// RegisterAdminChat добавляет чат в список получателей.
func (n *Notifier) RegisterAdminChat(ctx context.Context, chatID string) error {
	const op = "notify.RegisterAdminChat"
	if err := n.chats.AddToSet(ctx, AdminChatsKey, chatID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AdminChats возвращает список чатов администраторов.
func (n *Notifier) AdminChats(ctx context.Context) ([]string, error) {
	const op = "notify.AdminChats"
	chats, err := n.chats.MembersOf(ctx, AdminChatsKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return chats, nil
}

// NotifyAdmins публикует text для каждого чата администраторов.
// Ошибка публикации в один чат не мешает остальным; возвращается первая ошибка.
func (n *Notifier) NotifyAdmins(ctx context.Context, text string) error {
	const op = "notify.NotifyAdmins"
	chats, err := n.AdminChats(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var firstErr error
	for _, chatID := range chats {
		msg := AdminNotification{
			ID:        uuid.NewString(),
			ChatID:    chatID,
			Text:      text,
			CreatedAt: n.now(),
		}
		if n.ch == nil {
			n.log.Warn("admin notification (no broker configured)", sl.Op(op),
				slog.String("chat_id", chatID), slog.String("text", text))
			continue
		}
		if err := rabbitmq.PublishWithRetry(ctx, n.ch, n.policy, rabbitmq.Exchange, rabbitmq.AdminRoutingKey, msg); err != nil {
			n.log.Error("failed to publish admin notification", sl.Op(op), slog.String("chat_id", chatID), sl.Err(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", op, err)
			}
		}
	}
	return firstErr
}

// NotifyValidationErrors сообщает администраторам об ошибках в строках журнала пользователя.
// Каждая ошибка отправляется один раз, пока содержимое строки не изменится.
func (n *Notifier) NotifyValidationErrors(ctx context.Context, username string, errs []models.ValidationError) error {
	const op = "notify.NotifyValidationErrors"
	fresh := make([]models.ValidationError, 0, len(errs))
	for _, e := range errs {
		isNew, err := n.chats.AddNewToSet(ctx, ReportedErrorsKey, reportKey(e))
		if err != nil {
			n.log.Warn("failed to mark error as reported", sl.Op(op), sl.Err(err))
			isNew = true
		}
		if isNew {
			fresh = append(fresh, e)
		}
	}
	if len(fresh) == 0 {
		return nil
	}
	return n.NotifyAdmins(ctx, FormatValidationErrors(username, fresh))
}

func reportKey(e models.ValidationError) string {
	if e.Row == nil {
		return e.Message
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s", e.Message, e.Row.PassType, e.Row.DateActivated, e.Row.ExpirationDate, e.Row.Punches)
}

// FormatValidationErrors собирает текст уведомления об ошибках данных.
func FormatValidationErrors(username string, errs []models.ValidationError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ledger data errors for %s:", username)
	for _, e := range errs {
		b.WriteString("\n- ")
		b.WriteString(e.Message)
		if e.Row != nil {
			fmt.Fprintf(&b, " [%s | %s | %s | %s]", e.Row.PassType, e.Row.DateActivated, e.Row.ExpirationDate, e.Row.Punches)
		}
	}
	return b.String()
}
