package model

import (
	"encoding/json"
	"testing"
)

func TestSummarize_Partition(t *testing.T) {
	verifications := []ClaimVerification{
		{Status: StatusVerified},
		{Status: StatusVerified},
		{Status: StatusPartial},
		{Status: StatusFailed},
		{Status: VerificationStatus("garbage")}, // unknown counts as failed
	}

	resp := Summarize(verifications)
	s := resp.Summary
	if s.TotalClaims != 5 {
		t.Errorf("TotalClaims = %d, want 5", s.TotalClaims)
	}
	if s.Verified != 2 || s.Partial != 1 || s.Failed != 2 {
		t.Errorf("summary = %+v", s)
	}
	if s.Verified+s.Partial+s.Failed != s.TotalClaims {
		t.Errorf("counts do not partition TotalClaims: %+v", s)
	}
}

func TestSummarize_NilVerifications(t *testing.T) {
	resp := Summarize(nil)
	if resp.Verifications == nil {
		t.Error("Verifications must marshal as [] not null")
	}
	if resp.Summary.TotalClaims != 0 {
		t.Errorf("TotalClaims = %d", resp.Summary.TotalClaims)
	}

	encoded, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	if string(encoded) != `{"verifications":[],"summary":{"totalClaims":0,"verified":0,"partial":0,"failed":0}}` {
		t.Errorf("unexpected JSON: %s", encoded)
	}
}

func TestClampConfidence(t *testing.T) {
	tests := []struct{ in, want int }{
		{-10, 0}, {0, 0}, {50, 50}, {100, 100}, {150, 100},
	}
	for _, tt := range tests {
		if got := ClampConfidence(tt.in); got != tt.want {
			t.Errorf("ClampConfidence(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []VerificationStatus{StatusVerified, StatusPartial, StatusFailed} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []VerificationStatus{"", "maybe", "VERIFIED"} {
		if s.Valid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}

func TestNormalizeResultURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"https://Example.org/Check/", "https://example.org/check"},
		{"https://example.org/check", "https://example.org/check"},
		{"HTTPS://EXAMPLE.ORG/CHECK///", "https://example.org/check"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeResultURL(tt.in); got != tt.want {
			t.Errorf("NormalizeResultURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestScrapedContentOK(t *testing.T) {
	if (ScrapedContent{URL: "https://x", Text: "body"}).OK() != true {
		t.Error("content with text and no error should be OK")
	}
	if (ScrapedContent{URL: "https://x", Error: "host not found"}).OK() {
		t.Error("content with an error must not be OK")
	}
	if (ScrapedContent{URL: "https://x"}).OK() {
		t.Error("content without text must not be OK")
	}
}
