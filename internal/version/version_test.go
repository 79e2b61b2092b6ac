package version

import (
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in                     string
		major, minor, fix, pre int
	}{
		{"1.2.3", 1, 2, 3, 0},
		{"v0.10.1-pr4", 0, 10, 1, 4},
		{"2.0", 2, 0, 0, 0},
		{"garbage", 0, 0, 0, 0},
	}
	for _, test := range tests {
		major, minor, fix, pre := parse(test.in)
		if major != test.major || minor != test.minor || fix != test.fix || pre != test.pre {
			t.Errorf(
				"parse(%q) = %d.%d.%d-%d, want %d.%d.%d-%d", test.in, major, minor, fix, pre,
				test.major, test.minor, test.fix, test.pre,
			)
		}
	}
}

func TestEmbeddedVersion(t *testing.T) {
	if VERSION == "" {
		t.Fatal("VERSION is empty")
	}
	if UserAgent() != "credhouse/"+VERSION {
		t.Errorf("unexpected user agent %q", UserAgent())
	}
}
