package clipargs

import (
	"errors"
	"testing"

	"github.com/forPelevin/ytclip/internal/types"
)

func TestValidate_Table(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		quality   string
		wantField Field
	}{
		{name: "https", url: "https://www.youtube.com/watch?v=abc", quality: "720"},
		{name: "http upper scheme", url: "HTTP://example.com/v", quality: "best"},
		{name: "empty quality", url: "https://x", quality: ""},
		{name: "padded best", url: "https://x", quality: " Best "},
		{name: "option injection", url: "--update-to=attacker/evil@v1", wantField: FieldSourceURL},
		{name: "short option", url: "-a", wantField: FieldSourceURL},
		{name: "config location", url: "--config-locations=/tmp/x", wantField: FieldSourceURL},
		{name: "file url", url: "file:///etc/passwd", wantField: FieldSourceURL},
		{name: "bare path", url: "/etc/passwd", wantField: FieldSourceURL},
		{name: "no host", url: "https:///watch", wantField: FieldSourceURL},
		{name: "leading space", url: " https://x", wantField: FieldSourceURL},
		{name: "empty url", url: "", wantField: FieldSourceURL},
		{name: "selector injection", url: "https://x", quality: "720]/bestaudio", wantField: FieldQuality},
		{name: "negative height", url: "https://x", quality: "-1", wantField: FieldQuality},
		{name: "decimal height", url: "https://x", quality: "720.5", wantField: FieldQuality},
		{name: "huge height", url: "https://x", quality: "1234567", wantField: FieldQuality},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(types.ClipRequest{SourceURL: tt.url, Quality: tt.quality})
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var re *RequestError
			if !errors.As(err, &re) {
				t.Fatalf("expected *RequestError, got %v", err)
			}
			if re.Field != tt.wantField {
				t.Fatalf("field = %q, want %q", re.Field, tt.wantField)
			}
		})
	}
}

func TestRequestError_UserMessage(t *testing.T) {
	err := Validate(types.ClipRequest{SourceURL: "-x"})
	var re *RequestError
	if !errors.As(err, &re) || re.UserMessage() != "Invalid URL. Use an http(s) link" {
		t.Fatalf("unexpected message for bad url: %v", err)
	}
	err = Validate(types.ClipRequest{SourceURL: "https://x", Quality: "hd"})
	if !errors.As(err, &re) || re.UserMessage() != "Invalid quality. Use best or a height like 720" {
		t.Fatalf("unexpected message for bad quality: %v", err)
	}
}
