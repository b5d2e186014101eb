package warrior

import (
	"testing"
	"time"
)

func TestIsReady(t *testing.T) {
	now := time.Unix(10_000, 0)

	cases := []struct {
		name    string
		readyAt int64
		want    bool
	}{
		{name: "ready in the past", readyAt: 9_999, want: true},
		{name: "ready exactly now", readyAt: 10_000, want: true},
		{name: "ready in the future", readyAt: 10_001, want: false},
		{name: "zero timestamp is always ready", readyAt: 0, want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsReady(tc.readyAt, now); got != tc.want {
				t.Fatalf("IsReady(%d): got %v, want %v", tc.readyAt, got, tc.want)
			}
		})
	}
}

func TestTimeUntilReady_NonNegativeAndZeroIffReady(t *testing.T) {
	now := time.Unix(10_000, 0)

	for _, readyAt := range []int64{0, 9_000, 10_000, 10_001, 96_400} {
		d := TimeUntilReady(readyAt, now)
		if d < 0 {
			t.Fatalf("TimeUntilReady(%d) = %v, want non-negative", readyAt, d)
		}
		ready := IsReady(readyAt, now)
		if ready != (d == 0) {
			t.Fatalf("readyAt=%d: IsReady=%v but TimeUntilReady=%v", readyAt, ready, d)
		}
	}
}

func TestFormatWait_FloorsToHoursAndMinutes(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{d: 0, want: "0h 0m"},
		{d: 59 * time.Second, want: "0h 0m"},
		{d: 61 * time.Second, want: "0h 1m"},
		{d: 3725 * time.Second, want: "1h 2m"}, // seconds discarded
		{d: 24 * time.Hour, want: "24h 0m"},
	}

	for _, tc := range cases {
		if got := FormatWait(tc.d); got != tc.want {
			t.Fatalf("FormatWait(%v): got %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestSameOwner_CaseInsensitive(t *testing.T) {
	if !SameOwner("0xAbCd", "0xabcd") {
		t.Fatalf("expected case-insensitive match")
	}
	if SameOwner("0xAbCd", "0xabce") {
		t.Fatalf("expected mismatch for different addresses")
	}
}
