package clipargs

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/forPelevin/ytclip/internal/types"
)

type Field string

const (
	FieldSourceURL Field = "url"
	FieldQuality   Field = "quality"
)

// RequestError rejects a request field that must not reach the engine's
// argument list.
type RequestError struct {
	Field Field
	Value string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("validation: invalid %s %q", e.Field, e.Value)
}

// UserMessage is the text shown to whoever submitted the request.
func (e *RequestError) UserMessage() string {
	if e.Field == FieldQuality {
		return "Invalid quality. Use best or a height like 720"
	}
	return "Invalid URL. Use an http(s) link"
}

// Validate checks the fields Build passes through verbatim. The time range
// is checked separately by timerange.Validate.
func Validate(req types.ClipRequest) error {
	if !isWebURL(req.SourceURL) {
		return &RequestError{Field: FieldSourceURL, Value: req.SourceURL}
	}
	if !isQuality(req.Quality) {
		return &RequestError{Field: FieldQuality, Value: req.Quality}
	}
	return nil
}

// isWebURL accepts absolute http(s) URLs with a host. Anything else,
// including values that start with '-', would be read as a file path or an
// engine option.
func isWebURL(raw string) bool {
	if raw == "" || raw != strings.TrimSpace(raw) {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return true
	default:
		return false
	}
}

const maxQualityDigits = 5

// isQuality accepts "", "best" in any case, or a height made of ASCII digits.
func isQuality(q string) bool {
	q = strings.TrimSpace(q)
	if q == "" || strings.EqualFold(q, types.QualityBest) {
		return true
	}
	if len(q) > maxQualityDigits {
		return false
	}
	for i := 0; i < len(q); i++ {
		if q[i] < '0' || q[i] > '9' {
			return false
		}
	}
	return true
}
