package verification

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/credhouse/credhouse/validate"
)

func TestSanitizeURLForDisplay(t *testing.T) {
	short := "https://x.org/verify?address=0x1"
	if got := SanitizeURLForDisplay(short, 60); got != short {
		t.Errorf("short url changed: %q", got)
	}
	if got := SanitizeURLForDisplay(short, len(short)); got != short {
		t.Errorf("url of exactly max length changed: %q", got)
	}

	long := "https://credhouse.example.org/verify?address=0x" + strings.Repeat("a", 64) + "&credentialId=123"
	got := SanitizeURLForDisplay(long, 0)
	if got != long[:30]+"..."+long[len(long)-30:] {
		t.Errorf("unexpected sanitized url %q", got)
	}
	for _, n := range []int{1, 2, 7, 10, 59, 60} {
		got = SanitizeURLForDisplay(long, n)
		if utf8.RuneCountInString(got) > n+3 {
			t.Errorf("max %d: result too long (%d)", n, len(got))
		}
		if again := SanitizeURLForDisplay(got, n+3); again != got {
			t.Errorf("max %d: sanitizing a short result changed it", n)
		}
	}

	unicode := strings.Repeat("ä", 80)
	if got = SanitizeURLForDisplay(unicode, 10); !utf8.ValidString(got) || utf8.RuneCountInString(got) != 13 {
		t.Errorf("unexpected unicode result %q", got)
	}
}

func TestHandleURLError(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{validate.Field("address", validate.ErrInvalidWalletAddress), MessageInvalidWallet},
		{fmt.Errorf("wrapped: %w", validate.Field("address", validate.ErrMissingField)), MessageMissingInfo},
		{fmt.Errorf("disk full"), "disk full"},
		{"just a string", MessageUnknown},
		{nil, MessageUnknown},
		{42, MessageUnknown},
	}
	for _, test := range tests {
		if got := HandleURLError(test.in); got != test.want {
			t.Errorf("HandleURLError(%v) = %q, want %q", test.in, got, test.want)
		}
	}
}
