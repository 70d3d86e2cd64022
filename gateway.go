package session

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Default endpoint paths on the remote authority.
const (
	DefaultLoginPath         = "/auth/login"
	DefaultElevatedLoginPath = "/auth/admin/login"
	DefaultRefreshPath       = "/auth/refresh"
)

// CredentialSource supplies the current bearer credential for the refresh
// call. The Manager wires its own state in; tests can inject a constant.
type CredentialSource func() string

// HTTPGateway talks to the remote authority over HTTP. It owns envelope
// parsing and error classification; role normalization happens here, at the
// single boundary point, so nothing downstream ever sees a raw role shape.
type HTTPGateway struct {
	baseURL           string
	loginPath         string
	elevatedLoginPath string
	refreshPath       string
	client            *http.Client
	credential        CredentialSource
	logger            Logger
}

// GatewayOption customizes HTTPGateway construction.
type GatewayOption func(*HTTPGateway)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(client *http.Client) GatewayOption {
	return func(g *HTTPGateway) {
		if client != nil {
			g.client = client
		}
	}
}

// WithCredentialSource wires the bearer credential used by Refresh.
func WithCredentialSource(source CredentialSource) GatewayOption {
	return func(g *HTTPGateway) {
		if source != nil {
			g.credential = source
		}
	}
}

// WithGatewayLogger overrides the gateway logger.
func WithGatewayLogger(logger Logger) GatewayOption {
	return func(g *HTTPGateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithLoginPaths overrides the authority endpoint paths.
func WithLoginPaths(login, elevated, refresh string) GatewayOption {
	return func(g *HTTPGateway) {
		if login != "" {
			g.loginPath = login
		}
		if elevated != "" {
			g.elevatedLoginPath = elevated
		}
		if refresh != "" {
			g.refreshPath = refresh
		}
	}
}

// NewHTTPGateway returns a Gateway bound to the given authority base URL.
func NewHTTPGateway(baseURL string, opts ...GatewayOption) *HTTPGateway {
	g := &HTTPGateway{
		baseURL:           strings.TrimRight(baseURL, "/"),
		loginPath:         DefaultLoginPath,
		elevatedLoginPath: DefaultElevatedLoginPath,
		refreshPath:       DefaultRefreshPath,
		client:            &http.Client{},
		credential:        func() string { return "" },
		logger:            defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// Login implements Gateway against the standard (student/parent) endpoint.
func (g *HTTPGateway) Login(ctx context.Context, email, password string) (*AuthPayload, error) {
	return g.login(ctx, g.loginPath, email, password)
}

// LoginElevated implements Gateway against the admin/teacher endpoint.
func (g *HTTPGateway) LoginElevated(ctx context.Context, email, password string) (*AuthPayload, error) {
	return g.login(ctx, g.elevatedLoginPath, email, password)
}

func (g *HTTPGateway) login(ctx context.Context, path, email, password string) (*AuthPayload, error) {
	body, err := json.Marshal(Credentials{Email: email, Password: password})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode login payload")
	}

	payload, err := g.post(ctx, path, body, "")
	if err != nil {
		return nil, err
	}

	// A login response missing either half of the pair is never partially
	// accepted.
	if payload.User == nil || payload.AccessToken == "" {
		return nil, ErrMalformedEnvelope
	}

	return payload, nil
}

// Refresh implements Gateway. The user payload is optional; only the token
// is required.
func (g *HTTPGateway) Refresh(ctx context.Context) (*AuthPayload, error) {
	payload, err := g.post(ctx, g.refreshPath, []byte("{}"), g.credential())
	if err != nil {
		return nil, err
	}

	if payload.AccessToken == "" {
		return nil, ErrMalformedEnvelope
	}

	return payload, nil
}

func (g *HTTPGateway) post(ctx context.Context, path string, body []byte, bearer string) (*AuthPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build auth request")
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	res, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("auth request failed: %v", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "remote authority unreachable").
			WithTextCode(TextCodeNetworkFailure)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to read auth response").
			WithTextCode(TextCodeNetworkFailure)
	}

	if res.StatusCode >= http.StatusInternalServerError {
		g.logger.Error("remote authority returned %d: %s", res.StatusCode, raw)
		return nil, sentinelWithMetadata(ErrServerFailure, map[string]any{
			"status": res.StatusCode,
		})
	}

	if res.StatusCode >= http.StatusBadRequest {
		return nil, g.rejectionError(res.StatusCode, raw)
	}

	return decodeAuthEnvelope(raw)
}

// rejectionError classifies 4xx responses. The authority message, when
// present, rides along in metadata for the translation table.
func (g *HTTPGateway) rejectionError(status int, raw []byte) error {
	meta := map[string]any{"status": status}

	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Message == "" {
			envelope.Message = envelope.Error
		}
		if envelope.Message != "" {
			meta["message"] = envelope.Message
		}
	}

	return sentinelWithMetadata(ErrUnauthorized, meta)
}

// sentinelWithMetadata attaches per-request metadata to a copy of a shared
// sentinel. Mutating the sentinel itself would leak metadata across requests.
func sentinelWithMetadata(sentinel *goerrors.Error, meta map[string]any) error {
	clone := sentinel.Clone()
	if clone == nil {
		return sentinel
	}
	clone.Source = sentinel
	return clone.WithMetadata(meta)
}

// authEnvelope tolerates the two accepted response shapes:
// data.data.{user,access_token} and data.{user,access_token}.
type authEnvelope struct {
	Data *authBody `json:"data"`
}

type authBody struct {
	Data        *authBody `json:"data"`
	User        *User     `json:"user"`
	AccessToken string    `json:"access_token"`
}

func decodeAuthEnvelope(raw []byte) (*AuthPayload, error) {
	var envelope authEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to decode auth response").
			WithTextCode(TextCodeMalformedEnvelope)
	}

	body := envelope.Data
	if body == nil {
		return nil, ErrMalformedEnvelope
	}
	if body.User == nil && body.AccessToken == "" && body.Data != nil {
		body = body.Data
	}

	body.User.Normalize()

	return &AuthPayload{
		User:        body.User,
		AccessToken: body.AccessToken,
	}, nil
}

var _ Gateway = (*HTTPGateway)(nil)
