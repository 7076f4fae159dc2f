// Package apiclient is the HTTP pipeline every chat API call goes through.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/aichat/internal/model"
	"github.com/capitalize-ai/aichat/internal/notify"
	"github.com/capitalize-ai/aichat/pkg/logger"
	"github.com/capitalize-ai/aichat/pkg/metrics"
)

const (
	// DefaultTimeout bounds ordinary calls.
	DefaultTimeout = 120 * time.Second
	// ThinkingTimeout bounds chat sends that request the reasoning mode.
	ThinkingTimeout = 300 * time.Second

	// LoginPath is where the user is sent after a 401.
	LoginPath = "/login"
)

// CredentialProvider supplies the bearer token and is invalidated on 401.
type CredentialProvider interface {
	Token() string
	Invalidate(ctx context.Context)
}

// Navigator moves the user to another route.
type Navigator interface {
	Navigate(path string)
}

// Client sends requests to the chat API and unwraps its envelope.
type Client struct {
	rest            *resty.Client
	httpClient      *http.Client
	creds           CredentialProvider
	navigator       Navigator
	notifier        notify.Notifier
	logger          *logger.Logger
	tracer          trace.Tracer
	defaultTimeout  time.Duration
	thinkingTimeout time.Duration
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithCredentials(creds CredentialProvider) Option {
	return func(c *Client) {
		c.creds = creds
	}
}

func WithNavigator(nav Navigator) Option {
	return func(c *Client) {
		c.navigator = nav
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(c *Client) {
		c.notifier = n
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(c *Client) {
		c.logger = log
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = t
	}
}

// WithTimeouts overrides the default and reasoning-mode timeouts. Zero keeps the current value.
func WithTimeouts(def, thinking time.Duration) Option {
	return func(c *Client) {
		if def > 0 {
			c.defaultTimeout = def
		}
		if thinking > 0 {
			c.thinkingTimeout = thinking
		}
	}
}

// New creates a client for the API rooted at baseURL (for example http://host/api).
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("apiclient: base URL must not be empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("apiclient: invalid base URL: %w", err)
	}

	c := &Client{
		httpClient:      &http.Client{},
		notifier:        notify.Nop{},
		logger:          logger.NewNop(),
		tracer:          otel.Tracer("github.com/capitalize-ai/aichat/internal/apiclient"),
		defaultTimeout:  DefaultTimeout,
		thinkingTimeout: ThinkingTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.rest = resty.NewWithClient(c.httpClient).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetLogger(c.logger.Sugar()).
		OnBeforeRequest(c.authorize).
		OnAfterResponse(c.checkResponse).
		OnError(c.onError)
	return c, nil
}

// ChatTimeout picks the timeout for sending content.
func (c *Client) ChatTimeout(content string) time.Duration {
	if strings.HasPrefix(content, model.ThinkingModeMarker) {
		return c.thinkingTimeout
	}
	return c.defaultTimeout
}

// Request describes one API call.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any
	Timeout time.Duration
}

// Do executes req and decodes the envelope payload into out (which may be nil).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	_, err := c.execute(ctx, req, func(resp *resty.Response) error {
		var env model.Envelope
		if err := json.Unmarshal(resp.Body(), &env); err != nil {
			return &NetworkError{Status: resp.StatusCode(), Message: "invalid response body", Err: err}
		}
		if !env.OK() {
			msg := env.Message
			if msg == "" {
				msg = "Error"
			}
			return &ApplicationError{Code: env.Code, Message: msg}
		}
		if err := env.Decode(out); err != nil {
			return &NetworkError{Status: resp.StatusCode(), Message: "invalid response payload", Err: err}
		}
		return nil
	})
	return err
}

// Raw executes req and returns the body without envelope unwrapping. A JSON
// body that is a failed envelope is still reported as an ApplicationError.
func (c *Client) Raw(ctx context.Context, req Request) ([]byte, http.Header, error) {
	resp, err := c.execute(ctx, req, func(resp *resty.Response) error {
		if !strings.HasPrefix(resp.Header().Get("Content-Type"), "application/json") {
			return nil
		}
		var env model.Envelope
		if json.Unmarshal(resp.Body(), &env) == nil && env.Code != 0 && !env.OK() {
			return &ApplicationError{Code: env.Code, Message: env.Message}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return resp.Body(), resp.Header(), nil
}

type callKey struct{}

// call is the per-request state the resty hooks read back from the context.
type call struct {
	timeout time.Duration
	decode  func(*resty.Response) error
	err     error
}

func callFrom(ctx context.Context) *call {
	if cl, ok := ctx.Value(callKey{}).(*call); ok {
		return cl
	}
	return &call{}
}

func (c *Client) execute(ctx context.Context, req Request, decode func(*resty.Response) error) (*resty.Response, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}
	endpoint := endpointLabel(req.Path)
	requestID := uuid.NewString()

	ctx, span := c.tracer.Start(ctx, req.Method+" "+endpoint, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("http.route", endpoint),
		attribute.String("request.id", requestID),
	)

	cl := &call{timeout: timeout, decode: decode}
	callCtx, cancel := context.WithTimeout(context.WithValue(ctx, callKey{}, cl), timeout)
	defer cancel()

	r := c.rest.R().
		SetContext(callCtx).
		SetHeader("X-Request-ID", requestID)
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	start := time.Now()
	resp, err := r.Execute(req.Method, "/"+strings.TrimLeft(req.Path, "/"))
	duration := time.Since(start)
	if err != nil {
		// OnError has already classified and reported the failure.
		if cl.err == nil {
			cl.err = classify(err, timeout)
		}
		err = cl.err
	}

	outcome := Outcome(err)
	metrics.RecordClientCall(req.Method, endpoint, outcome, duration.Seconds())

	log := c.logger.With(
		zap.String("request_id", requestID),
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Duration("duration", duration),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("api call failed", zap.String("outcome", outcome), zap.Error(err))
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))
	log.Debug("api call completed", zap.Int("status", resp.StatusCode()))
	return resp, nil
}

// authorize attaches the bearer token, read fresh for every request.
func (c *Client) authorize(_ *resty.Client, r *resty.Request) error {
	if c.creds == nil {
		return nil
	}
	if token := c.creds.Token(); token != "" {
		r.SetAuthToken(token)
	}
	return nil
}

// checkResponse maps the status line to the typed errors and then runs the
// call's body decoder.
func (c *Client) checkResponse(_ *resty.Client, resp *resty.Response) error {
	status := resp.StatusCode()
	if status == http.StatusUnauthorized {
		return &AuthError{Message: SessionExpiredMessage}
	}
	if status < 200 || status > 299 {
		msg := bodyMessage(resp.Body())
		if msg == "" {
			msg = statusMessage(status)
		}
		return &NetworkError{Status: status, Message: msg}
	}
	if decode := callFrom(resp.Request.Context()).decode; decode != nil {
		return decode(resp)
	}
	return nil
}

func (c *Client) onError(r *resty.Request, err error) {
	cl := callFrom(r.Context())
	cl.err = classify(err, cl.timeout)
	c.intercept(r.Context(), cl.err)
}

// classify keeps the typed errors raised by the hooks and turns everything
// else into a NetworkError.
func classify(err error, timeout time.Duration) error {
	var respErr *resty.ResponseError
	if errors.As(err, &respErr) {
		err = respErr.Err
	}
	var (
		authErr *AuthError
		appErr  *ApplicationError
		netErr  *NetworkError
	)
	switch {
	case errors.As(err, &authErr):
		return authErr
	case errors.As(err, &appErr):
		return appErr
	case errors.As(err, &netErr):
		return netErr
	}
	return transportError(err, timeout)
}

// intercept applies the global failure handling: session teardown on 401 and a
// user-visible notice for every failure.
func (c *Client) intercept(ctx context.Context, err error) {
	if IsAuth(err) {
		if c.creds != nil {
			c.creds.Invalidate(context.WithoutCancel(ctx))
		}
		if c.navigator != nil {
			c.navigator.Navigate(LoginPath)
		}
	}
	notify.Error(c.notifier, err.Error())
}

func transportError(err error, timeout time.Duration) *NetworkError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &NetworkError{
			Message: fmt.Sprintf("timeout of %dms exceeded", timeout.Milliseconds()),
			Timeout: true,
			Err:     err,
		}
	}
	msg := err.Error()
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		msg = urlErr.Err.Error()
	}
	if msg == "" {
		msg = DefaultNetworkMessage
	}
	return &NetworkError{Message: msg, Err: err}
}

// bodyMessage extracts the message field of an error body, if it has one.
func bodyMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &body) != nil {
		return ""
	}
	return body.Message
}

var numericSegment = regexp.MustCompile(`/\d+(/|$)`)

// endpointLabel collapses numeric path segments so labels stay bounded.
func endpointLabel(path string) string {
	path = "/" + strings.TrimLeft(path, "/")
	for numericSegment.MatchString(path) {
		path = numericSegment.ReplaceAllString(path, "/:id$1")
	}
	return path
}
