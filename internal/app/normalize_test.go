package app

import (
	"strings"
	"testing"
	"time"
)

func TestDeriveProjectID(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	cases := []struct {
		name string
		want string
	}{
		{"Fraud Review", "fraud-review-20260314-092653"},
		{"  Fraud   Review!! ", "fraud-review-20260314-092653"},
		{"Ünïcode & Symbols ###", "n-code-symbols-20260314-092653"},
		{"", "project-20260314-092653"},
		{"---", "project-20260314-092653"},
	}
	for _, tc := range cases {
		if got := deriveProjectID(tc.name, now); got != tc.want {
			t.Fatalf("deriveProjectID(%q) = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestDeriveProjectIDUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	local := time.Date(2026, 3, 14, 14, 26, 53, 0, loc)

	got := deriveProjectID("demo", local)
	if !strings.HasSuffix(got, "20260314-092653") {
		t.Fatalf("timestamp suffix not in UTC: %s", got)
	}
}

func TestNormalizeSelectedLLMs(t *testing.T) {
	input := []string{" GPT-5 ", "", "gpt-5", "Claude", "  ", "CLAUDE", "Gemini"}
	got := normalizeSelectedLLMs(input)

	want := []string{"GPT-5", "Claude", "Gemini"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestNormalizeDeploymentEnvironment(t *testing.T) {
	if got, err := normalizeDeploymentEnvironment("  AWS Native "); err != nil || got != "AWS Native" {
		t.Fatalf("got %q, %v", got, err)
	}
	if got, err := normalizeDeploymentEnvironment(""); err != nil || got != "" {
		t.Fatalf("empty input: got %q, %v", got, err)
	}

	_, err := normalizeDeploymentEnvironment("Heroku")
	if err == nil {
		t.Fatal("expected rejection of unsupported environment")
	}
	domainErr, ok := err.(*DomainError)
	if !ok {
		t.Fatalf("expected DomainError, got %T", err)
	}
	if !strings.Contains(domainErr.Message, "Heroku") {
		t.Fatalf("error should name the offending value: %s", domainErr.Message)
	}
}
