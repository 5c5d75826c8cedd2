package moderation

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

const canonicalPrefix = "https://x.com/"

var ErrNotCanonicalLink = errors.New("not a canonical status link")

var canonicalLink = regexp.MustCompile(`^https://x\.com/[A-Za-z0-9_]{1,30}/status/\d+$`)

var hostAliases = map[string]string{
	"x.com":           "x.com",
	"www.x.com":       "x.com",
	"twitter.com":     "x.com",
	"www.twitter.com": "x.com",
}

// NormalizeLink returns the canonical https://x.com/<handle>/status/<id> form
// of content, which must be exactly one status URL and nothing else.
func NormalizeLink(content string) (string, error) {
	s := strings.TrimSpace(content)
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return "", ErrNotCanonicalLink
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", ErrNotCanonicalLink
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", ErrNotCanonicalLink
	}
	host, ok := hostAliases[strings.ToLower(u.Host)]
	if !ok || u.User != nil || u.RawQuery != "" || u.Fragment != "" {
		return "", ErrNotCanonicalLink
	}
	link := "https://" + host + u.EscapedPath()
	if !canonicalLink.MatchString(link) {
		return "", ErrNotCanonicalLink
	}
	// handles are case-insensitive
	handle, rest, _ := strings.Cut(strings.TrimPrefix(link, canonicalPrefix), "/")
	return canonicalPrefix + strings.ToLower(handle) + "/" + rest, nil
}
