// Package redact provides utilities for redacting sensitive information from
// strings before they are logged or returned in error responses. The backend
// forwards raw SQL (with interpolated literals) to a database bridge and talks
// to an LLM API and an object store with key-based credentials, so error text
// routinely carries material that must not leak into logs.
package redact

import "regexp"

// Placeholders substituted for redacted content.
const (
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	KeyPlaceholder        = "[REDACTED_KEY]"
	SQLLiteralPlaceholder = "'[REDACTED]'"
	URLPlaceholder        = "[REDACTED_URL]"
)

var (
	// Connection strings with embedded credentials (postgres://user:pw@host).
	connStringRegex = regexp.MustCompile(`(?i)(postgres|postgresql|mysql|https?)://[^@\s]+@`)

	// password=..., passwd: ... and similar assignments.
	passwordRegex = regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]['"]?)[^'"&\s]{3,}`)

	// API keys, tokens and secrets in key=value or key: value form.
	apiKeyRegex = regexp.MustCompile(
		`(?i)(api[_-]?key|secret[_-]?key|access[_-]?key|token|secret)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)

	// Signed JWTs (three base64url segments starting with eyJ).
	jwtRegex = regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`)

	// Quoted string literals inside interpolated SQL statements.
	sqlLiteralRegex = regexp.MustCompile(`'(?:[^']|'')*'`)

	// Presigned/result URLs with query parameters (may carry signatures).
	signedURLRegex = regexp.MustCompile(`https?://[^\s'"]+\?[^\s'"]+`)
)

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := signedURLRegex.ReplaceAllString(input, URLPlaceholder)
	result = connStringRegex.ReplaceAllString(result, CredentialPlaceholder+"@")
	result = passwordRegex.ReplaceAllString(result, "$1$2"+CredentialPlaceholder)
	result = apiKeyRegex.ReplaceAllString(result, "$1$2"+KeyPlaceholder)
	result = jwtRegex.ReplaceAllString(result, KeyPlaceholder)
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// Statement redacts the string literals from an interpolated SQL statement so
// the statement shape stays readable in logs while parameter values do not.
func Statement(stmt string) string {
	if stmt == "" {
		return stmt
	}
	return sqlLiteralRegex.ReplaceAllString(stmt, SQLLiteralPlaceholder)
}
