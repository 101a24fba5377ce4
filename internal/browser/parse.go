package browser

import (
	"strings"
	"unicode"
)

// usernameFromHref extracts the account handle from a profile href such as
// "/someuser/" or "https://www.instagram.com/someuser/?hl=en". Reserved paths
// like "/explore/" and nested paths like "/p/abc123/" are not profiles and
// return false.
func usernameFromHref(href string) (string, bool) {
	if href == "" {
		return "", false
	}

	path := href
	if i := strings.Index(path, "://"); i >= 0 {
		path = path[i+3:]
		if j := strings.Index(path, "/"); j >= 0 {
			path = path[j:]
		} else {
			return "", false
		}
	}
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}

	path = strings.Trim(path, "/")
	if path == "" || strings.Contains(path, "/") {
		return "", false
	}

	if reservedPaths[strings.ToLower(path)] {
		return "", false
	}

	for _, r := range path {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' {
			return "", false
		}
	}

	return path, true
}

// reservedPaths are top-level routes that look like profile hrefs but are not.
var reservedPaths = map[string]bool{
	"explore":   true,
	"reels":     true,
	"direct":    true,
	"stories":   true,
	"accounts":  true,
	"p":         true,
	"reel":      true,
	"tv":        true,
	"legal":     true,
	"about":     true,
	"developer": true,
}

// parseCount turns a displayed follower count like "1,234", "12.5K" or "1.2M"
// into an integer. Abbreviated counts are approximations, which is fine: the
// caller only uses the total as a completeness heuristic.
func parseCount(text string) (int, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, false
	}

	// Strip a trailing word, e.g. "1,234 followers".
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		s = s[:i]
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "K"), strings.HasSuffix(s, "k"):
		multiplier = 1_000
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "M"), strings.HasSuffix(s, "m"):
		multiplier = 1_000_000
		s = s[:len(s)-1]
	}

	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}

	whole := 0
	frac := 0.0
	fracScale := 1.0
	seenDot := false
	for _, r := range s {
		switch {
		case r == '.' && !seenDot:
			seenDot = true
		case r >= '0' && r <= '9':
			if seenDot {
				fracScale /= 10
				frac += float64(r-'0') * fracScale
			} else {
				whole = whole*10 + int(r-'0')
			}
		default:
			return 0, false
		}
	}

	return int((float64(whole) + frac) * multiplier), true
}
