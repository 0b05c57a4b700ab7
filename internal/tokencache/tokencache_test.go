package tokencache

import "testing"

func TestGet_FetchesWhenEmpty(t *testing.T) {
	c := New()
	calls := 0
	fetch := func() (string, int64, error) {
		calls++
		return "tok-1", 1000, nil
	}

	tok, err := c.Get(0, fetch)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if tok != "tok-1" || calls != 1 {
		t.Fatalf("expected one fetch returning tok-1, got %q calls=%d", tok, calls)
	}
}

func TestGet_ReusesValidToken(t *testing.T) {
	c := New()
	calls := 0
	fetch := func() (string, int64, error) {
		calls++
		return "tok-1", 1000, nil
	}

	c.Get(0, fetch)
	tok, _ := c.Get(900, fetch)
	if tok != "tok-1" || calls != 1 {
		t.Fatalf("expected cached reuse, got %q calls=%d", tok, calls)
	}
}

func TestGet_RefreshesWithin30SecondsOfExpiry(t *testing.T) {
	c := New()
	c.Update("stale", 1000)

	calls := 0
	fetch := func() (string, int64, error) {
		calls++
		return "fresh", 2000, nil
	}

	tok, _ := c.Get(975, fetch)
	if tok != "fresh" || calls != 1 {
		t.Fatalf("expected refresh inside 30s window, got %q calls=%d", tok, calls)
	}
}

func TestIsInvalid(t *testing.T) {
	if !isInvalid(-1, 0) {
		t.Fatal("never-populated cache must be invalid")
	}
	if !isInvalid(1000, 975) {
		t.Fatal("expiring within 30s must be invalid")
	}
	if isInvalid(1000, 900) {
		t.Fatal("token with >30s remaining must be valid")
	}
}
