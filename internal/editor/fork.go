package editor

import (
	"strings"
	"time"

	"github.com/marcus/memopad/internal/store"
)

// forkDelim separates a base title from the machine-added fork suffix.
// It is reserved: when a forked memo is forked again, exactly one
// well-formed suffix is stripped before the new one is appended, so
// titles never accumulate suffix chains.
const forkDelim = " · "

const forkTimeLayout = "2006-01-02 15:04"

// deriveForkTitle produces the title for the memo a mode switch forks
// off: the base title plus the target mode and a timestamp.
func deriveForkTitle(title string, target store.Mode, at time.Time) string {
	base := stripForkSuffix(title)
	stamp := string(target) + " " + at.Format(forkTimeLayout)
	if base == "" {
		return stamp
	}
	return base + forkDelim + stamp
}

// stripForkSuffix removes one trailing machine-added suffix, if the
// trailing segment is exactly "<mode> <timestamp>". A user-typed title
// that merely contains the delimiter is left alone.
func stripForkSuffix(title string) string {
	idx := strings.LastIndex(title, forkDelim)
	if idx < 0 {
		return title
	}
	if isForkSuffix(title[idx+len(forkDelim):]) {
		return title[:idx]
	}
	return title
}

func isForkSuffix(s string) bool {
	mode, stamp, ok := strings.Cut(s, " ")
	if !ok || !store.Mode(mode).Valid() {
		return false
	}
	_, err := time.Parse(forkTimeLayout, stamp)
	return err == nil
}
