package handler

import (
	"net/url"
	"testing"
)

func TestRedirectPolicyAllowed(t *testing.T) {
	p := NewRedirectPolicy([]string{"www.example.com", " Apply.Example.com "})

	tests := []struct {
		target string
		want   bool
	}{
		{"/thank-you", true},
		{"/contact?x=1#top", true},
		{"https://www.example.com/thanks", true},
		{"http://apply.example.com:8080/done", true},
		{"", false},
		{"//evil.com/path", false},
		{`/\evil.com`, false},
		{"https://evil.com/thanks", false},
		{"https://www.example.com.evil.com/", false},
		{"javascript:alert(1)", false},
		{"ftp://www.example.com/file", false},
		{"thanks", false},
		{"/bad\npath", false},
	}

	for _, tt := range tests {
		if got := p.Allowed(tt.target); got != tt.want {
			t.Errorf("Allowed(%q) = %v, want %v", tt.target, got, tt.want)
		}
	}
}

func TestRedirectPolicyResolve(t *testing.T) {
	p := NewRedirectPolicy(nil)

	if got := p.Resolve("/careers/thanks", "/fallback"); got != "/careers/thanks" {
		t.Errorf("Expected requested target, got %s", got)
	}
	if got := p.Resolve("https://evil.com", "/fallback"); got != "/fallback" {
		t.Errorf("Expected fallback, got %s", got)
	}
	if got := p.Resolve("https://evil.com", "https://also-evil.com"); got != "/" {
		t.Errorf("Expected root, got %s", got)
	}
}

func TestWithSentFlag(t *testing.T) {
	tests := []struct {
		name   string
		target string
		form   string
		sent   bool
		want   url.Values
		path   string
	}{
		{"plain path", "/thanks", "contact", true, url.Values{"contact_sent": {"1"}}, "/thanks"},
		{"keeps query", "/thanks?ref=ad", "career", false, url.Values{"career_sent": {"0"}, "ref": {"ad"}}, "/thanks"},
		{"replaces flag", "/thanks?contact_sent=1&contact_sent=1", "contact", false, url.Values{"contact_sent": {"0"}}, "/thanks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(WithSentFlag(tt.target, tt.form, tt.sent))
			if err != nil {
				t.Fatalf("Invalid result: %v", err)
			}
			if u.Path != tt.path {
				t.Errorf("Expected path %s, got %s", tt.path, u.Path)
			}
			if u.Query().Encode() != tt.want.Encode() {
				t.Errorf("Expected query %s, got %s", tt.want.Encode(), u.RawQuery)
			}
		})
	}
}
