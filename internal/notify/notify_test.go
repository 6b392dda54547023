package notify

import "testing"

func TestTruncateLeavesShortStringsAlone(t *testing.T) {
	if got := Truncate("hello", 80); got != "hello" {
		t.Fatalf("got %q", got)
	}
}

func TestTruncateShortensLongStrings(t *testing.T) {
	long := make([]rune, 200)
	for i := range long {
		long[i] = 'x'
	}
	got := Truncate(string(long), 80)
	if len(got) != 83 {
		t.Fatalf("expected truncated length 83, got %d (%q)", len(got), got)
	}
}

func TestDisabledNeverErrors(t *testing.T) {
	if err := (Disabled{}).NotifyClipboardSynced("device-b", "preview"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
