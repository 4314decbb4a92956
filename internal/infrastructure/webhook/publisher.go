package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/calendar"
	"github.com/andrei73/pushup-counter/internal/domain/competition"
	"github.com/andrei73/pushup-counter/internal/platform/logging"
	"github.com/andrei73/pushup-counter/internal/platform/resilience"
	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	EventCompetitionCompleted = "competition.completed"

	signatureHeader   = "X-Pushup-Signature"
	eventHeader       = "X-Pushup-Event"
	idempotencyHeader = "Idempotency-Key"
	defaultTimeout    = 10 * time.Second
	maxLoggedBody     = 4096
)

var errWebhookTransient = crerr.New("webhook transient failure")

type PublisherConfig struct {
	URL            string
	Secret         string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Publisher posts competition lifecycle events to a configured receiver.
type Publisher struct {
	client  *fasthttp.Client
	url     string
	secret  []byte
	timeout time.Duration
	breaker *resilience.CircuitBreaker
	logger  *logging.Logger
	now     func() time.Time
}

func NewPublisher(cfg PublisherConfig, logger *logging.Logger) (*Publisher, error) {
	target, err := validateHTTPURL(cfg.URL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid WEBHOOK_URL")
	}
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Publisher{
		client: &fasthttp.Client{
			Name:                "pushup-counter-webhook",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
		url:     target,
		secret:  []byte(strings.TrimSpace(cfg.Secret)),
		timeout: timeout,
		breaker: resilience.FromConfig(cfg.CircuitBreaker),
		logger:  logger.Named("webhook"),
		now:     time.Now,
	}, nil
}

type competitionEvent struct {
	Event       string             `json:"event"`
	OccurredAt  string             `json:"occurred_at"`
	Competition competitionPayload `json:"competition"`
}

type competitionPayload struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	StartDate string         `json:"start_date"`
	EndDate   string         `json:"end_date"`
	Status    string         `json:"status"`
	Winner    *winnerPayload `json:"winner"`
}

type winnerPayload struct {
	UserID string `json:"user_id"`
	Total  int    `json:"total"`
}

func (p *Publisher) PublishCompetitionCompleted(ctx context.Context, c competition.Competition) error {
	event := competitionEvent{
		Event:      EventCompetitionCompleted,
		OccurredAt: p.now().UTC().Format(time.RFC3339),
		Competition: competitionPayload{
			ID:        c.ID,
			Name:      c.Name,
			StartDate: calendar.Format(c.StartDate),
			EndDate:   calendar.Format(c.EndDate),
			Status:    string(c.Status),
		},
	}
	if c.HasWinner() {
		event.Competition.Winner = &winnerPayload{UserID: c.Winner.UserID, Total: c.Winner.Total}
	}

	err := p.breaker.Execute(ctx, func(ctx context.Context) error {
		return p.send(ctx, EventCompetitionCompleted, EventCompetitionCompleted+":"+c.ID, event)
	}, isCircuitFailure)
	if crerr.Is(err, resilience.ErrCircuitOpen) {
		p.logger.WarnContext(ctx, "webhook circuit breaker rejected request", "state", p.breaker.State())
		return crerr.Wrap(err, "webhook receiver is temporarily unavailable")
	}
	return err
}

func (p *Publisher) send(ctx context.Context, eventName, idempotencyKey string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	body, err := sonic.Marshal(payload)
	if err != nil {
		return crerr.Wrap(err, "marshal webhook payload")
	}
	_, _ = buf.Write(body)

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(p.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set(eventHeader, eventName)
	req.Header.Set(idempotencyHeader, idempotencyKey)
	if len(p.secret) > 0 {
		req.Header.Set(signatureHeader, "sha256="+sign(p.secret, buf.B))
	}
	req.SetBody(buf.B)

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("webhook.url", p.url),
			attribute.String("webhook.event", eventName),
			attribute.String("webhook.request_body", truncateForLog(string(buf.B), maxLoggedBody)),
		)
	}

	if err := p.client.DoDeadline(req, resp, p.deadline(ctx)); err != nil {
		return crerr.Mark(crerr.Wrapf(err, "post webhook event=%s url=%s", eventName, p.url), errWebhookTransient)
	}

	status := resp.StatusCode()
	if status/100 != 2 {
		raw := truncateForLog(strings.TrimSpace(string(resp.Body())), maxLoggedBody)
		callErr := crerr.Newf("post webhook event=%s status=%d body=%s", eventName, status, raw)
		if isRetryableStatus(status) {
			callErr = crerr.Mark(callErr, errWebhookTransient)
		}
		return callErr
	}

	p.logger.InfoContext(ctx, "webhook event delivered", "event", eventName, "idempotency_key", idempotencyKey, "status_code", status)
	return nil
}

func (p *Publisher) deadline(ctx context.Context) time.Time {
	deadline := time.Now().Add(p.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		return ctxDeadline
	}
	return deadline
}

func sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func isCircuitFailure(err error) bool {
	return crerr.Is(err, errWebhookTransient)
}

func isRetryableStatus(code int) bool {
	return code == fasthttp.StatusTooManyRequests || code >= fasthttp.StatusInternalServerError
}

func validateHTTPURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return candidate, nil
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return fmt.Sprintf("%s...(truncated)", value[:max])
}
