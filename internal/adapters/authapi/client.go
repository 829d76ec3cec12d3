// Package authapi implements ports.AuthClient over the auth service's JSON HTTP API.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"

	apperrors "github.com/target/authify-client/internal/errors"
	"github.com/target/authify-client/internal/ports"
)

// DefaultMessagePath selects the human-readable message from a failure body.
const DefaultMessagePath = "message"

// maxErrorBody caps how much of a failure body is read for message extraction.
const maxErrorBody = 64 << 10

// Fallback messages used when a failure body carries no message.
const (
	MsgRegisterFailed     = "Registration failed. Please try again."
	MsgLoginFailed        = "Login failed. Please check your credentials."
	MsgSendOTPFailed      = "Failed to send OTP. Please try again."
	MsgResetFailed        = "Failed to reset password. Please try again."
	MsgVerificationFailed = "Verification failed. Please check your OTP."
	MsgProfileFailed      = "Failed to load profile. Please try again."
)

// Config controls the HTTP client.
type Config struct {
	BaseURL     string
	Timeout     time.Duration // default 15s when zero
	MessagePath string        // JMESPath over the failure body; default "message"
	UserAgent   string
	HTTPClient  *http.Client // Optional; a cookie-aware client is built when nil
	Logger      *slog.Logger
}

// Client implements ports.AuthClient.
type Client struct {
	base        *url.URL
	hc          *http.Client
	messagePath string
	userAgent   string
	logger      *slog.Logger
}

var _ ports.AuthClient = (*Client)(nil)

// StatusError records a non-2xx answer. It unwraps to ErrTokenRejected when the
// service refused the bearer token.
type StatusError struct {
	StatusCode    int
	Status        string
	TokenRejected bool
}

func (e *StatusError) Error() string {
	return "auth service answered " + e.Status
}

func (e *StatusError) Unwrap() error {
	if e.TokenRejected {
		return apperrors.ErrTokenRejected
	}
	return nil
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("auth base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse auth base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid auth base URL scheme: %q", base.Scheme)
	}
	if base.Host == "" {
		return nil, errors.New("invalid auth base URL: missing host")
	}

	path := strings.TrimSpace(cfg.MessagePath)
	if path == "" {
		path = DefaultMessagePath
	}
	if _, err := jmespath.Compile(path); err != nil {
		return nil, fmt.Errorf("invalid message path %q: %w", path, err)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		hc = &http.Client{Timeout: timeout, Jar: jar}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		base:        base,
		hc:          hc,
		messagePath: path,
		userAgent:   strings.TrimSpace(cfg.UserAgent),
		logger:      logger.With("component", "authapi"),
	}, nil
}

// call describes one RPC.
type call struct {
	op       string
	method   string
	path     string
	query    url.Values
	body     any
	out      any
	token    string
	fallback string
}

func (c *Client) Register(ctx context.Context, in ports.RegisterInput) (ports.Profile, error) {
	var out ports.Profile
	err := c.do(ctx, call{
		op: "register", method: http.MethodPost, path: "/register",
		body: in, out: &out, fallback: MsgRegisterFailed,
	})
	return out, err
}

func (c *Client) Login(ctx context.Context, in ports.LoginInput) (ports.LoginResult, error) {
	var out ports.LoginResult
	err := c.do(ctx, call{
		op: "login", method: http.MethodPost, path: "/login",
		body: in, out: &out, fallback: MsgLoginFailed,
	})
	return out, err
}

func (c *Client) SendResetOTP(ctx context.Context, email string) error {
	return c.do(ctx, call{
		op: "send_reset_otp", method: http.MethodPost, path: "/send-reset-otp",
		query: url.Values{"email": {email}}, fallback: MsgSendOTPFailed,
	})
}

func (c *Client) ResetPassword(ctx context.Context, in ports.ResetPasswordInput) error {
	return c.do(ctx, call{
		op: "reset_password", method: http.MethodPost, path: "/reset-password",
		body: in, fallback: MsgResetFailed,
	})
}

func (c *Client) SendVerifyOTP(ctx context.Context, token string) error {
	return c.do(ctx, call{
		op: "send_verify_otp", method: http.MethodPost, path: "/send-otp",
		token: token, fallback: MsgSendOTPFailed,
	})
}

func (c *Client) VerifyOTP(ctx context.Context, token, otp string) error {
	return c.do(ctx, call{
		op: "verify_otp", method: http.MethodPost, path: "/verify-otp",
		body: map[string]string{"otp": otp}, token: token, fallback: MsgVerificationFailed,
	})
}

func (c *Client) VerifyEmail(ctx context.Context, email, otp string) error {
	return c.do(ctx, call{
		op: "verify_email", method: http.MethodPost, path: "/verify-email",
		body: map[string]string{"email": email, "otp": otp}, fallback: MsgVerificationFailed,
	})
}

func (c *Client) GetProfile(ctx context.Context, token string) (ports.Profile, error) {
	var out ports.Profile
	err := c.do(ctx, call{
		op: "get_profile", method: http.MethodGet, path: "/profile",
		token: token, out: &out, fallback: MsgProfileFailed,
	})
	return out, err
}

func (c *Client) do(ctx context.Context, rc call) error {
	req, err := c.newRequest(ctx, rc)
	if err != nil {
		return apperrors.Internal(rc.fallback, err)
	}
	requestID := req.Header.Get("X-Request-ID")

	start := time.Now()
	resp, err := c.clientFor(rc.token).Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "auth request failed",
			"op", rc.op, "request_id", requestID, "error", err)
		return apperrors.Unreachable(rc.fallback, fmt.Errorf("%s: %w", rc.op, err))
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "auth request completed",
		"op", rc.op, "request_id", requestID, "status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.rejection(resp, rc)
	}

	if rc.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(rc.out); err != nil {
		return apperrors.RemoteRejected(rc.fallback, fmt.Errorf("decode %s response: %w", rc.op, err))
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, rc call) (*http.Request, error) {
	u := c.base.JoinPath(rc.path)
	if len(rc.query) > 0 {
		u.RawQuery = rc.query.Encode()
	}

	var body io.Reader
	if rc.body != nil {
		b, err := json.Marshal(rc.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", rc.op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, rc.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", rc.op, err)
	}
	if rc.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

// clientFor returns the shared client, or a copy whose transport injects the
// bearer token when one is given.
func (c *Client) clientFor(token string) *http.Client {
	if token == "" {
		return c.hc
	}
	hc := *c.hc
	hc.Transport = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
		Base:   c.hc.Transport,
	}
	return &hc
}

func (c *Client) rejection(resp *http.Response, rc call) error {
	denied := resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden
	statusErr := &StatusError{
		StatusCode:    resp.StatusCode,
		Status:        resp.Status,
		TokenRejected: rc.token != "" && denied,
	}

	msg := rc.fallback
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil {
		if extracted := c.extractMessage(raw); extracted != "" {
			msg = extracted
		}
	}
	return apperrors.RemoteRejected(msg, statusErr)
}

// extractMessage evaluates the message path over a JSON body. Non-JSON bodies
// and non-string results yield "".
func (c *Client) extractMessage(raw []byte) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return ""
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return ""
	}
	res, err := jmespath.Search(c.messagePath, data)
	if err != nil {
		return ""
	}
	s, ok := res.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
