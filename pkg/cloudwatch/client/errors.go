package client

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// ErrorCode returns the API error code of err, e.g. "AccessDeniedException", or "" for non API errors.
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// IsThrottle reports whether err is an API throttling error.
func IsThrottle(err error) bool {
	_, ok := retry.DefaultThrottleErrorCodes[ErrorCode(err)]
	return ok
}

// IsAccessDenied reports whether err says the principal lacks a permission.
func IsAccessDenied(err error) bool {
	switch ErrorCode(err) {
	case "AccessDenied", "AccessDeniedException", "UnauthorizedOperation", "UnrecognizedClientException":
		return true
	default:
		return false
	}
}

// IsExpiredToken reports whether err says the session token expired.
func IsExpiredToken(err error) bool {
	switch ErrorCode(err) {
	case "ExpiredToken", "ExpiredTokenException", "RequestExpired":
		return true
	default:
		return false
	}
}

// IsTransport reports whether the request never got a response.
func IsTransport(err error) bool {
	var sendErr *smithyhttp.RequestSendError
	return errors.As(err, &sendErr)
}

// IsCanceled reports whether err stems from a cancelled or timed out context.
func IsCanceled(err error) bool {
	var canceled *aws.RequestCanceledError
	return errors.As(err, &canceled) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Reason gives a short classification of an SDK error for logs and reports.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case IsCanceled(err):
		return "canceled"
	case IsThrottle(err):
		return "throttled"
	case IsAccessDenied(err):
		return "access-denied"
	case IsExpiredToken(err):
		return "expired"
	case IsTransport(err):
		return "transport"
	}
	if code := ErrorCode(err); code != "" {
		return code
	}
	return "unknown"
}
