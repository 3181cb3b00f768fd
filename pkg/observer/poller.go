// Package observer 学生状态观察客户端，等待导师处理期间定时刷新状态
package observer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"intervention_backend/internal/model"
	"intervention_backend/pkg/logger"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DefaultInterval = 5 * time.Second

var ErrStudentNotFound = errors.New("student not found")

// StatusView 状态接口返回的数据
type StatusView struct {
	Student             model.Student       `json:"student"`
	PendingIntervention *model.Intervention `json:"pending_intervention"`
	PollIntervalSeconds int                 `json:"poll_interval_seconds"`
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client 状态接口客户端
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient baseURL 为接口根地址，如 http://localhost:8080/api
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Status 获取学生当前状态
func (c *Client) Status(ctx context.Context, studentID string) (*StatusView, error) {
	return c.get(ctx, "/students/"+url.PathEscape(studentID)+"/status")
}

// WaitForChange 调用长轮询接口，等待时间由服务端限制
func (c *Client) WaitForChange(ctx context.Context, studentID string, known model.StudentStatus, timeout time.Duration) (*StatusView, error) {
	q := url.Values{}
	q.Set("known", string(known))
	q.Set("timeout", fmt.Sprint(int(timeout/time.Second)))
	return c.get(ctx, "/students/"+url.PathEscape(studentID)+"/status/wait?"+q.Encode())
}

func (c *Client) get(ctx context.Context, path string) (*StatusView, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrStudentNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("status request failed (%d): %s", resp.StatusCode, env.Message)
	}

	var view StatusView
	if err := json.Unmarshal(env.Data, &view); err != nil {
		return nil, fmt.Errorf("decode status view: %w", err)
	}
	return &view, nil
}

// Poller 仅在学生处于 Needs Intervention 时轮询，观察到状态变化即停止
type Poller struct {
	client   *Client
	interval time.Duration
	longPoll bool
	onUpdate func(*StatusView)
}

// Option 轮询选项
type Option func(*Poller)

// WithInterval 服务端未下发间隔时使用的轮询间隔
func WithInterval(d time.Duration) Option {
	return func(p *Poller) { p.interval = d }
}

// WithLongPoll 使用长轮询
func WithLongPoll() Option {
	return func(p *Poller) { p.longPoll = true }
}

// OnUpdate 每次获取到状态时回调
func OnUpdate(fn func(*StatusView)) Option {
	return func(p *Poller) { p.onUpdate = fn }
}

// NewPoller 创建轮询器
func NewPoller(client *Client, opts ...Option) *Poller {
	p := &Poller{client: client, interval: DefaultInterval}
	for _, opt := range opts {
		opt(p)
	}
	if p.interval <= 0 {
		p.interval = DefaultInterval
	}
	return p
}

// Watch 返回第一个不处于 Needs Intervention 的状态，其他状态只查询一次
func (p *Poller) Watch(ctx context.Context, studentID string) (*StatusView, error) {
	view, err := p.client.Status(ctx, studentID)
	if err != nil {
		return nil, err
	}
	p.notify(view)

	for view.Student.Status == model.StatusNeedsIntervention {
		interval := p.interval
		if view.PollIntervalSeconds > 0 {
			interval = time.Duration(view.PollIntervalSeconds) * time.Second
		}

		if p.longPoll {
			view, err = p.client.WaitForChange(ctx, studentID, view.Student.Status, interval)
		} else {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(interval):
			}
			view, err = p.client.Status(ctx, studentID)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// 临时错误，继续轮询
			logger.Log.Warn("Status poll failed", zap.String("studentId", studentID), zap.Error(err))
			view = &StatusView{Student: model.Student{ID: studentID, Status: model.StatusNeedsIntervention}, PollIntervalSeconds: int(interval / time.Second)}
			if p.longPoll {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(interval):
				}
			}
			continue
		}
		p.notify(view)
	}
	return view, nil
}

func (p *Poller) notify(view *StatusView) {
	if p.onUpdate != nil {
		p.onUpdate(view)
	}
}
