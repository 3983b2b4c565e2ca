package aws

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"

	"github.com/vietdv277/awsfree/pkg/provider"
)

var (
	authCodes = []string{
		"AuthFailure",
		"InvalidClientTokenId",
		"SignatureDoesNotMatch",
		"UnrecognizedClientException",
		"ExpiredToken",
	}
	permissionCodes = []string{
		"UnauthorizedOperation",
		"AccessDenied",
		"AccessDeniedException",
	}
	limitCodes = []string{
		"RequestLimitExceeded",
		"InstanceLimitExceeded",
		"VcpuLimitExceeded",
		"Throttling",
	}
	// Malformed ids can never name an existing resource
	notFoundCodes = []string{
		"InvalidInstanceID.Malformed",
		"InvalidAMIID.Malformed",
		"InvalidGroupId.Malformed",
	}

	authFragments       = []string{"no valid credential", "failed to retrieve credentials"}
	permissionFragments = []string{"not authorized"}
	limitFragments      = []string{"limit exceeded"}
	notFoundFragments   = []string{"does not exist"}

	sentinels = []error{
		provider.ErrAuthFailed,
		provider.ErrPermissionDenied,
		provider.ErrLimitExceeded,
		provider.ErrNotFound,
		provider.ErrDuplicate,
	}
)

// ErrorCode returns the API error code carried by err, if any
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// IsCode reports whether err carries one of the given API error codes
func IsCode(err error, codes ...string) bool {
	code := ErrorCode(err)
	if code == "" {
		return false
	}
	for _, c := range codes {
		if code == c {
			return true
		}
	}
	return false
}

// Classify maps a provider error onto the sentinel errors in pkg/provider.
// The result wraps both the sentinel and the original error.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	for _, s := range sentinels {
		if errors.Is(err, s) {
			return err
		}
	}

	// Codes are authoritative
	code := ErrorCode(err)
	switch {
	case code == "":
	case contains(authCodes, code):
		return wrap(provider.ErrAuthFailed, err)
	case contains(permissionCodes, code):
		return wrap(provider.ErrPermissionDenied, err)
	case contains(limitCodes, code):
		return wrap(provider.ErrLimitExceeded, err)
	case strings.HasSuffix(code, ".NotFound"), contains(notFoundCodes, code):
		return wrap(provider.ErrNotFound, err)
	}

	// Fall back to message content
	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, authFragments):
		return wrap(provider.ErrAuthFailed, err)
	case containsAny(msg, permissionFragments):
		return wrap(provider.ErrPermissionDenied, err)
	case containsAny(msg, limitFragments):
		return wrap(provider.ErrLimitExceeded, err)
	case containsAny(msg, notFoundFragments):
		return wrap(provider.ErrNotFound, err)
	}

	return err
}

// Hint returns a one-line remediation for a classified error, or "" when
// there is nothing useful to suggest
func Hint(err error) string {
	switch {
	case errors.Is(err, provider.ErrAuthFailed):
		return "Check AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY in ~/.env, or pass --profile to use a shared AWS profile"
	case errors.Is(err, provider.ErrPermissionDenied):
		return "The IAM user needs EC2 permissions for this command (for example the AmazonEC2FullAccess policy)"
	case errors.Is(err, provider.ErrLimitExceeded):
		return "AWS is throttling requests or an account limit was reached; wait a moment and retry"
	case errors.Is(err, provider.ErrNotFound):
		return "Check the id and the region; 'awsfree list <region>' shows what exists"
	case errors.Is(err, provider.ErrNotRunning):
		return "Start the instance from the web console ('awsfree web') or create a new one"
	}
	return ""
}

func wrap(sentinel, err error) error {
	return fmt.Errorf("%w: %w", sentinel, err)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}
