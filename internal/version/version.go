package version

import (
	_ "embed" // for go:embed
	"fmt"
	"strconv"
	"strings"
)

// VERSION holds the version of credhouse
//
//go:embed VERSION
var VERSION string

// Version segments
var (
	MAJOR int
	MINOR int
	FIX   int
	PRE   int
)

func init() {
	VERSION = strings.TrimSpace(VERSION)
	MAJOR, MINOR, FIX, PRE = parse(VERSION)
}

// parse splits a version of the form major.minor.fix[-prN]. Missing or
// malformed segments are zero.
func parse(v string) (major, minor, fix, pre int) {
	v, preRelease, _ := strings.Cut(strings.TrimPrefix(v, "v"), "-")
	segments := strings.Split(v, ".")
	ints := make([]int, 3)
	for i := 0; i < len(segments) && i < len(ints); i++ {
		ints[i], _ = strconv.Atoi(segments[i])
	}
	pre, _ = strconv.Atoi(strings.TrimPrefix(preRelease, "pr"))
	return ints[0], ints[1], ints[2], pre
}

// UserAgent returns the user agent / server header value
func UserAgent() string {
	return fmt.Sprintf("credhouse/%s", VERSION)
}
