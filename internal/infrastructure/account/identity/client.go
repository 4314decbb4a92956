package identity

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/user"
	"github.com/andrei73/pushup-counter/internal/platform/logging"
	"github.com/andrei73/pushup-counter/internal/platform/resilience"
	"github.com/andrei73/pushup-counter/internal/usecase"
	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
)

const (
	defaultCacheTTL        = time.Minute
	defaultCacheMaxEntries = 10000
	maxResponseBytes       = 1 << 20
)

var errIdentityTransient = crerr.New("identity provider transient failure")

type ClientConfig struct {
	BaseURL        string
	IntrospectPath string
	AdminKey       string
	CacheTTL       time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client verifies bearer tokens against the identity provider's introspection endpoint.
type Client struct {
	httpClient    *http.Client
	introspectURL string
	adminKey      string
	cache         *principalCache
	breaker       *resilience.CircuitBreaker
	logger        *logging.Logger
}

func NewClient(httpClient *http.Client, cfg ClientConfig, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = defaultCacheTTL
	}

	return &Client{
		httpClient:    httpClient,
		introspectURL: buildURL(cfg.BaseURL, cfg.IntrospectPath),
		adminKey:      strings.TrimSpace(cfg.AdminKey),
		cache:         newPrincipalCache(ttl, defaultCacheMaxEntries),
		breaker:       resilience.FromConfig(cfg.CircuitBreaker),
		logger:        logger.Named("identity"),
	}
}

func (c *Client) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	cacheKey := hashToken(token)
	if principal, ok := c.cache.Get(cacheKey); ok {
		return principal, nil
	}

	var (
		principal user.Principal
		expiry    time.Time
	)
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		principal, expiry, err = c.introspect(ctx, token)
		return err
	}, isCircuitFailure)
	if err != nil {
		if crerr.Is(err, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "identity circuit breaker rejected request", "state", c.breaker.State())
			return user.Principal{}, fmt.Errorf("%w: identity provider circuit open", usecase.ErrDependencyUnavailable)
		}
		if crerr.Is(err, errIdentityTransient) {
			return user.Principal{}, fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err)
		}
		return user.Principal{}, err
	}

	c.cache.Set(cacheKey, principal, expiry)
	return principal, nil
}

func (c *Client) introspect(ctx context.Context, token string) (user.Principal, time.Time, error) {
	encoded, err := sonic.Marshal(introspectRequest{Token: token})
	if err != nil {
		return user.Principal{}, time.Time{}, crerr.Wrap(err, "marshal introspect request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.introspectURL, bytes.NewReader(encoded))
	if err != nil {
		return user.Principal{}, time.Time{}, crerr.Wrap(err, "create introspect request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.adminKey != "" {
		req.Header.Set("x-admin-key", c.adminKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return user.Principal{}, time.Time{}, crerr.Mark(crerr.Wrap(err, "request introspection"), errIdentityTransient)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return user.Principal{}, time.Time{}, crerr.Mark(crerr.Wrap(err, "read introspect response"), errIdentityTransient)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return user.Principal{}, time.Time{}, fmt.Errorf("%w: introspection denied", usecase.ErrUnauthorized)
	case resp.StatusCode == http.StatusForbidden:
		// A rejected admin key is our misconfiguration, not the caller's.
		c.logger.ErrorContext(ctx, "identity provider rejected admin key", "status_code", resp.StatusCode)
		return user.Principal{}, time.Time{}, fmt.Errorf("%w: identity provider rejected admin key", usecase.ErrDependencyUnavailable)
	case isRetryableStatus(resp.StatusCode):
		c.logger.WarnContext(ctx, "identity introspection failed", "status_code", resp.StatusCode)
		return user.Principal{}, time.Time{}, crerr.Mark(crerr.Newf("introspection status %d", resp.StatusCode), errIdentityTransient)
	case resp.StatusCode != http.StatusOK:
		return user.Principal{}, time.Time{}, crerr.Newf("identity introspection failed with status %d", resp.StatusCode)
	}

	var decoded introspectResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return user.Principal{}, time.Time{}, crerr.Wrap(err, "unmarshal introspect response")
	}
	if !decoded.Active {
		return user.Principal{}, time.Time{}, fmt.Errorf("%w: inactive token", usecase.ErrUnauthorized)
	}
	if strings.TrimSpace(decoded.UserID) == "" {
		return user.Principal{}, time.Time{}, crerr.New("invalid introspect response: user_id is empty")
	}

	var expiry time.Time
	if decoded.ExpiresAt > 0 {
		expiry = time.Unix(decoded.ExpiresAt, 0)
	}
	return user.Principal{
		UserID: strings.TrimSpace(decoded.UserID),
		Email:  strings.TrimSpace(decoded.Email),
		Roles:  decoded.Roles,
	}, expiry, nil
}

type introspectRequest struct {
	Token string `json:"token"`
}

// introspectResponse.ExpiresAt is the token's exp claim in unix seconds; zero when absent.
type introspectResponse struct {
	Active    bool     `json:"active"`
	UserID    string   `json:"user_id"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
	ExpiresAt int64    `json:"exp"`
}

func isCircuitFailure(err error) bool {
	return crerr.Is(err, errIdentityTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// hashToken is the cache key; raw tokens are not retained.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// buildURL resolves the introspection path against BaseURL. An absolute path is used as is.
func buildURL(baseURL, path string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	path = strings.TrimSpace(path)
	switch {
	case path == "":
		return base
	case strings.Contains(path, "://"):
		return path
	default:
		return base + "/" + strings.TrimLeft(path, "/")
	}
}
