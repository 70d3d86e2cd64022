package session

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeLoginTimeout      = "LOGIN_TIMEOUT"
	TextCodeNetworkFailure    = "AUTH_NETWORK_FAILURE"
	TextCodeUnauthorized      = "AUTH_REJECTED"
	TextCodeServerFailure     = "AUTH_SERVER_FAILURE"
	TextCodeMalformedEnvelope = "AUTH_MALFORMED_ENVELOPE"
	TextCodeMalformedSnapshot = "SESSION_MALFORMED_SNAPSHOT"
)

// ErrLoginTimeout is returned when the login call loses the race against the
// timeout window.
var ErrLoginTimeout = goerrors.New("login did not settle within the timeout window", goerrors.CategoryOperation).
	WithTextCode(TextCodeLoginTimeout)

// ErrNetworkFailure is returned when the remote authority is unreachable.
var ErrNetworkFailure = goerrors.New("remote authority unreachable", goerrors.CategoryOperation).
	WithTextCode(TextCodeNetworkFailure)

// ErrUnauthorized is returned when the remote authority rejects the
// submitted credentials. The authority-supplied message, when present, is
// carried in metadata under "message".
var ErrUnauthorized = goerrors.New("remote authority rejected credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnauthorized).
	WithCode(goerrors.CodeUnauthorized)

// ErrServerFailure is returned when the remote authority reports an internal
// error.
var ErrServerFailure = goerrors.New("remote authority internal error", goerrors.CategoryInternal).
	WithTextCode(TextCodeServerFailure)

// ErrMalformedEnvelope is returned when an otherwise-successful response is
// missing the user or the access token. Partial payloads are never accepted.
var ErrMalformedEnvelope = goerrors.New("auth response missing user or access token", goerrors.CategoryBadInput).
	WithTextCode(TextCodeMalformedEnvelope)

// ErrMalformedSnapshot marks a persisted snapshot that failed to parse. It
// never reaches the UI; bootstrap purges the snapshot and settles
// unauthenticated instead.
var ErrMalformedSnapshot = goerrors.New("persisted session snapshot failed to parse", goerrors.CategoryBadInput).
	WithTextCode(TextCodeMalformedSnapshot)

// Fixed localized messages surfaced through LastError.
const (
	MsgInvalidCredentials = "Email hoặc mật khẩu không đúng"
	MsgLoginTimeout       = "Yêu cầu đăng nhập đã hết thời gian chờ, vui lòng thử lại"
	MsgNetworkFailure     = "Không thể kết nối đến máy chủ, vui lòng kiểm tra kết nối mạng"
	MsgServerFailure      = "Máy chủ đang gặp sự cố, vui lòng thử lại sau"
)

// Known authority-supplied rejection messages and their localized
// equivalents. Unknown messages pass through verbatim.
var authMessageTranslations = map[string]string{
	"Invalid credentials":   MsgInvalidCredentials,
	"Invalid password":      MsgInvalidCredentials,
	"Unauthorized":          MsgInvalidCredentials,
	"User not found":        "Tài khoản không tồn tại",
	"Account disabled":      "Tài khoản đã bị vô hiệu hóa",
	"Account locked":        "Tài khoản đã bị khóa, vui lòng liên hệ trung tâm",
	"Email not verified":    "Email chưa được xác thực",
	"Too many attempts":     "Bạn đã thử quá nhiều lần, vui lòng thử lại sau",
	"Internal server error": MsgServerFailure,
}

// LoginMessage reduces a gateway or local error to the localized message
// stored in LastError. Errors never cross the public operation boundary, so
// this is the only user-visible surface of the taxonomy.
func LoginMessage(err error) string {
	if err == nil {
		return ""
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return MsgNetworkFailure
	}

	switch richErr.TextCode {
	case TextCodeLoginTimeout:
		return MsgLoginTimeout
	case TextCodeNetworkFailure:
		return MsgNetworkFailure
	case TextCodeServerFailure:
		return MsgServerFailure
	case TextCodeMalformedEnvelope:
		// A response without both user and credential is indistinguishable
		// from a rejection as far as the UI is concerned.
		return MsgInvalidCredentials
	case TextCodeUnauthorized:
		return translateAuthMessage(richErr)
	default:
		return MsgNetworkFailure
	}
}

func translateAuthMessage(richErr *goerrors.Error) string {
	raw, ok := richErr.Metadata["message"].(string)
	if !ok || raw == "" {
		return MsgInvalidCredentials
	}
	if localized, known := authMessageTranslations[raw]; known {
		return localized
	}
	return raw
}
