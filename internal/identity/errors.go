package identity

import (
	"errors"
	"regexp"
	"strings"
)

// Error codes reported by the identity provider.
const (
	CodeEmailNotFound           = "EMAIL_NOT_FOUND"
	CodeUserDisabled            = "USER_DISABLED"
	CodeInvalidCredentials      = "INVALID_LOGIN_CREDENTIALS"
	CodeEmailExists             = "EMAIL_EXISTS"
	CodeAlreadyExists           = "ALREADY_EXISTS"
	CodeOperationNotAllowed     = "OPERATION_NOT_ALLOWED"
	CodeTooManyAttempts         = "TOO_MANY_ATTEMPTS_TRY_LATER"
	CodeTooManyRequests         = "TOO_MANY_REQUESTS"
	CodeInvalidEmail            = "INVALID_EMAIL"
	CodeInvalidPassword         = "INVALID_PASSWORD"
	CodeWeakPassword            = "WEAK_PASSWORD"
	CodeExpiredOOBCode          = "EXPIRED_OOB_CODE"
	CodeInvalidOOBCode          = "INVALID_OOB_CODE"
	CodePasswordRequirements    = "PASSWORD_DOES_NOT_MEET_REQUIREMENTS"
	CodeCredentialTooOld        = "CREDENTIAL_TOO_OLD_LOGIN_AGAIN"
	CodeTokenExpired            = "TOKEN_EXPIRED"
	CodeInvalidIDToken          = "INVALID_ID_TOKEN"
	CodeUserNotFound            = "USER_NOT_FOUND"
	CodeProfileWriteFailed      = "FIRESTORE_WRITE_FAILED"
	CodeProviderUnavailable     = "PROVIDER_UNAVAILABLE"
	defaultFriendlyMessage      = "❌ An unexpected error occurred"
	passwordRequirementsMessage = "🔒 Password requirements not met:\n- "
)

var friendlyMessages = map[string]string{
	CodeEmailNotFound:        "❌ No account found with this email.",
	CodeUserDisabled:         "⚠️ This account has been disabled.",
	CodeInvalidCredentials:   "❌ Invalid email or password.",
	CodeEmailExists:          "📧 This email is already registered.",
	CodeAlreadyExists:        "📧 This email is already registered.",
	CodeOperationNotAllowed:  "🚫 Password sign-in is disabled for this project.",
	CodeTooManyAttempts:      "🔒 We have blocked all requests from this device due to unusual activity. Try again later.",
	CodeTooManyRequests:      "🔒 We have blocked all requests from this device due to unusual activity. Try again later.",
	CodeInvalidEmail:         "📬 The email address is not valid.",
	CodeInvalidPassword:      "🔑 The password must be at least 8 characters long.",
	CodeWeakPassword:         "🔑 The password must be at least 8 characters long.",
	CodeExpiredOOBCode:       "🔑 The password reset link has expired. Please request a new one.",
	CodeInvalidOOBCode:       "🔑 The password reset link is invalid. It may have already been used.",
	CodePasswordRequirements: "🔒 The password does not meet the requirements.",
	CodeCredentialTooOld:     "🔑 Your session has expired. Please log in again.",
	CodeTokenExpired:         "🔑 Your session has expired. Please log in again.",
	CodeInvalidIDToken:       "🔑 Your session is invalid. Please log in again.",
	CodeUserNotFound:         "❌ The user account was not found.",
	CodeProfileWriteFailed:   "⚠️ Your account was created, but we couldn't save your details. Please contact support.",
	CodeProviderUnavailable:  "⚠️ The sign-in service is unavailable. Please try again later.",
}

// Codes are checked in this order when a raw message has to be scanned, so
// longer codes win over codes they contain.
var scanOrder = []string{
	CodePasswordRequirements,
	CodeCredentialTooOld,
	CodeTooManyAttempts,
	CodeInvalidCredentials,
	CodeOperationNotAllowed,
	CodeEmailNotFound,
	CodeUserDisabled,
	CodeEmailExists,
	CodeAlreadyExists,
	CodeTooManyRequests,
	CodeInvalidEmail,
	CodeInvalidPassword,
	CodeWeakPassword,
	CodeExpiredOOBCode,
	CodeInvalidOOBCode,
	CodeTokenExpired,
	CodeInvalidIDToken,
	CodeUserNotFound,
	CodeProfileWriteFailed,
}

var (
	bracketed    = regexp.MustCompile(`\[(.*?)\]`)
	codePatterns = compileCodes(scanOrder)
)

func compileCodes(codes []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(codes))
	for i, code := range codes {
		out[i] = regexp.MustCompile(`\b` + code + `\b`)
	}
	return out
}

// Error is a provider failure tagged with one of the codes above. Message
// keeps the provider's raw text, which can carry details after the code.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" && e.Message != e.Code {
		return "identity: " + e.Message
	}
	return "identity: " + e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// Code returns the provider code carried by err, or "" when err is not an
// *Error.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// codeFromMessage extracts the code from REST messages such as
// "WEAK_PASSWORD : Password should be at least 6 characters".
func codeFromMessage(msg string) string {
	code, _, _ := strings.Cut(msg, " : ")
	return strings.TrimSpace(code)
}

// FriendlyMessage turns err into text that can be shown to the user.
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}
	raw := err.Error()
	code := Code(err)
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		raw = e.Message
	}
	if code == "" {
		code = scanCode(raw)
	}

	if code == CodePasswordRequirements {
		if m := bracketed.FindStringSubmatch(raw); m != nil && m[1] != "" {
			return passwordRequirementsMessage + strings.ReplaceAll(m[1], ", ", "\n- ")
		}
	}
	if msg, ok := friendlyMessages[code]; ok {
		return msg
	}
	return defaultFriendlyMessage + ": " + raw
}

func scanCode(raw string) string {
	for i, re := range codePatterns {
		if re.MatchString(raw) {
			return scanOrder[i]
		}
	}
	return ""
}
