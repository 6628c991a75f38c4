package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"media-vault-server/config"
	"media-vault-server/internal/util"
	"net/http"
	"time"
)

// WebhookNotifier отправляет события на внешний webhook — доставкой писем
// (подтверждение email, сброс пароля) занимается отдельный сервис
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(cfg *config.WebhookConfig) *WebhookNotifier {
	timeout := 10 * time.Second
	if cfg.Timeout != "" {
		parsed, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			log.Printf("[Notifier] некорректный timeout %q, используется значение по умолчанию", cfg.Timeout)
		} else {
			timeout = parsed
		}
	}

	return &WebhookNotifier{
		url:    cfg.URL,
		client: &http.Client{Timeout: timeout},
	}
}

func (n *WebhookNotifier) NotifyVerification(ctx context.Context, email, link string) error {
	return n.send(ctx, "email_verification", map[string]string{
		"email": email,
		"link":  link,
	})
}

func (n *WebhookNotifier) NotifyPasswordReset(ctx context.Context, email, link string) error {
	return n.send(ctx, "password_reset", map[string]string{
		"email": email,
		"link":  link,
	})
}

func (n *WebhookNotifier) NotifyNewIPLogin(ctx context.Context, userUUID, ipAddress string) error {
	return n.send(ctx, "new_ip_login", map[string]string{
		"user_uuid":  userUUID,
		"ip_address": ipAddress,
	})
}

func (n *WebhookNotifier) send(ctx context.Context, event string, payload map[string]string) error {
	if n.url == "" {
		log.Printf("[Notifier] webhook не настроен, событие %s пропущено", event)
		return nil
	}

	body, err := json.Marshal(map[string]interface{}{
		"event":   event,
		"payload": payload,
	})
	if err != nil {
		return util.LogError("[Notifier] ошибка сериализации события", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return util.LogError("[Notifier] ошибка создания запроса", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return util.LogError("[Notifier] ошибка отправки события", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("[Notifier] неожиданный статус ответа webhook: %s", resp.Status)
	}

	return nil
}
