package auth

import (
	"testing"
	"time"
)

func TestJoinTokensRoundTrip(t *testing.T) {
	tokens := NewJoinTokens("test-secret", time.Hour)

	tok, err := tokens.Issue("abcd1234", "alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := tokens.Verify(tok, "abcd1234", "alice"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := tokens.Verify(tok, "abcd1234", "bob"); err == nil {
		t.Fatalf("expected mismatch for another student")
	}
	if err := tokens.Verify(tok, "other000", "alice"); err == nil {
		t.Fatalf("expected mismatch for another room")
	}
	if err := NewJoinTokens("other-secret", time.Hour).Verify(tok, "abcd1234", "alice"); err == nil {
		t.Fatalf("expected signature failure")
	}
}

func TestJoinTokensExpire(t *testing.T) {
	tokens := NewJoinTokens("test-secret", time.Minute)
	now := time.Now()
	tokens.now = func() time.Time { return now }

	tok, err := tokens.Issue("abcd1234", "alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if err := tokens.Verify(tok, "abcd1234", "alice"); err == nil {
		t.Fatalf("expected expired token to fail")
	}
	if err := tokens.Verify("", "abcd1234", "alice"); err == nil {
		t.Fatalf("expected empty token to fail")
	}
}
