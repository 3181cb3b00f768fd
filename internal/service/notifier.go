package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"intervention_backend/internal/util"
	"io"
	"net/http"
	"sync"
	"time"
)

type EventType string

const (
	EventInterventionCreated  EventType = "intervention.created"
	EventInterventionReminder EventType = "intervention.reminder"
)

// InterventionNotification 发送给导师的通知内容
type InterventionNotification struct {
	Event          EventType `json:"event"`
	StudentID      string    `json:"student_id"`
	StudentName    string    `json:"student_name"`
	QuizScore      int       `json:"quiz_score"`
	FocusMinutes   int       `json:"focus_minutes"`
	InterventionID string    `json:"intervention_id"`
	Reason         string    `json:"reason"`
	Timestamp      time.Time `json:"timestamp"`
}

// Notifier 通知渠道
type Notifier interface {
	Notify(ctx context.Context, n InterventionNotification) error
}

// WebhookNotifier 以 JSON 形式推送到 webhook
// 未配置地址时返回 util.ErrNotifierDisabled
type WebhookNotifier struct {
	mu     sync.RWMutex
	url    string
	client *http.Client
}

// NewWebhookNotifier 创建 webhook 通知
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{},
	}
}

// SetURL 配置热更新时替换地址
func (w *WebhookNotifier) SetURL(url string) {
	w.mu.Lock()
	w.url = url
	w.mu.Unlock()
}

func (w *WebhookNotifier) URL() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.url
}

// Notify 推送通知，非2xx响应视为失败
func (w *WebhookNotifier) Notify(ctx context.Context, n InterventionNotification) error {
	url := w.URL()
	if url == "" {
		return util.ErrNotifierDisabled
	}

	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook responded %d: %s", resp.StatusCode, string(msg))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
