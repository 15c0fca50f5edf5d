package validate

import (
	"strings"
	"testing"
)

func TestCheckURL_Safe(t *testing.T) {
	urls := []string{
		"https://example.com/article",
		"http://news.example.org/2024/report?id=3",
		"https://8.8.8.8/page",
		"https://en.wikipedia.org/wiki/Laksa",
	}
	for _, u := range urls {
		if err := CheckURL(u); err != nil {
			t.Errorf("CheckURL(%q) = %v, want nil", u, err)
		}
	}
}

func TestCheckURL_Rejected(t *testing.T) {
	tests := []struct {
		url    string
		reason string
	}{
		{"ftp://example.com/file", "protocols"},
		{"file:///etc/passwd", "protocols"},
		{"gopher://example.com", "protocols"},
		{"http://localhost/admin", "localhost"},
		{"http://app.localhost/admin", "localhost"},
		{"http://127.0.0.1:8080/", "localhost"},
		{"http://127.0.0.53/", "localhost"},
		{"http://[::1]/", "localhost"},
		{"http://10.0.0.1/internal", "private"},
		{"http://10.255.255.255/", "private"},
		{"http://172.16.0.1/", "private"},
		{"http://172.31.99.99/", "private"},
		{"http://192.168.1.1/router", "private"},
		{"http://169.254.169.254/latest/meta-data/", "metadata"},
		{"http://metadata.google.internal/computeMetadata/v1/", "metadata"},
		{"http://169.254.10.10/", "link-local"},
		{"http://0.0.0.0/", "unspecified"},
		{"not a url", "invalid"},
		{"://missing-scheme", "invalid"},
		{"example.com/no-scheme", "invalid"},
		{"file:///etc/shadow", "protocols"},
		{"", "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := CheckURL(tt.url)
			if err == nil {
				t.Fatalf("CheckURL(%q) = nil, want rejection", tt.url)
			}
			if !strings.Contains(strings.ToLower(err.Error()), tt.reason) {
				t.Errorf("CheckURL(%q) = %q, want reason containing %q", tt.url, err, tt.reason)
			}
		})
	}
}

func TestCheckURL_PublicEdgeOfPrivateRanges(t *testing.T) {
	// Addresses adjacent to RFC1918 ranges stay fetchable.
	urls := []string{
		"http://172.15.255.255/",
		"http://172.32.0.1/",
		"http://11.0.0.1/",
		"http://192.169.0.1/",
	}
	for _, u := range urls {
		if err := CheckURL(u); err != nil {
			t.Errorf("CheckURL(%q) = %v, want nil", u, err)
		}
	}
}
