package http

import (
	"fmt"
	"regexp"
)

// MaxLoggedResponseLength is the maximum length of response text to
// include in logs. Responses longer than this are truncated so source
// code and secrets do not end up in log aggregators.
const MaxLoggedResponseLength = 200

// TruncateForLogging safely truncates a response string for logging.
func TruncateForLogging(response string) string {
	if len(response) <= MaxLoggedResponseLength {
		return response
	}
	return response[:MaxLoggedResponseLength] + fmt.Sprintf("... [truncated, total length=%d bytes]", len(response))
}

var urlSecretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(api_key)=[^&"\s]+`),
	regexp.MustCompile(`(apiKey)=[^&"\s]+`),
	regexp.MustCompile(`(access_token)=[^&"\s]+`),
	regexp.MustCompile(`(token)=[^&"\s]+`),
	regexp.MustCompile(`(key)=[^&"\s]+`),
}

// RedactURLSecrets redacts API keys and tokens from URLs that appear in
// error messages, so query-parameter credentials never reach logs.
func RedactURLSecrets(text string) string {
	if text == "" {
		return text
	}

	result := text
	for _, re := range urlSecretPatterns {
		result = re.ReplaceAllString(result, "$1=[REDACTED]")
	}
	return result
}
