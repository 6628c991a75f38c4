package ports

import "context"

// Notifier : внешний коллаборатор доставки писем — сервер отправляет события
// на webhook, фактическую рассылку выполняет отдельный сервис
type Notifier interface {
	NotifyVerification(ctx context.Context, email, link string) error
	NotifyPasswordReset(ctx context.Context, email, link string) error
	NotifyNewIPLogin(ctx context.Context, userUUID, ipAddress string) error
}
