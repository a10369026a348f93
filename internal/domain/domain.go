// Package domain normalizes hostnames found in chat messages and classifies them against
// per-community allow and block lists.
package domain

import (
	"errors"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/purell"
)

var ErrEmptyDomain = errors.New("domain is empty")

var urlRegex = regexp.MustCompile(`(?i)https?://[^\s]+`)

const normalizeFlags = purell.FlagLowercaseScheme | purell.FlagLowercaseHost | purell.FlagRemoveWWW | purell.FlagRemoveDefaultPort

// trailing characters that commonly end a sentence right after a link
const trailingPunct = ".,;:!?)]}>\"'"

// Normalize lower-cases raw, reduces absolute http(s) URLs to their host and strips a leading "www.".
func Normalize(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(d, "http://") || strings.HasPrefix(d, "https://") {
		if host := hostOf(d); host != "" {
			d = host
		}
	}
	d = strings.TrimPrefix(d, "www.")
	return strings.TrimSuffix(d, ".")
}

func hostOf(raw string) string {
	raw = strings.TrimRight(raw, trailingPunct)
	clean, err := purell.NormalizeURLString(raw, normalizeFlags)
	if err != nil {
		clean = raw
	}
	var host string
	if u, err := url.Parse(clean); err == nil {
		host = u.Hostname()
	} else {
		host = authorityHost(raw)
	}
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	return strings.TrimRight(host, trailingPunct)
}

// authorityHost cuts the host out of a URL that net/url rejects, such as one with a
// malformed percent escape in its path.
func authorityHost(raw string) string {
	_, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return ""
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		rest = rest[i+1:]
	}
	if strings.HasPrefix(rest, "[") {
		if end := strings.Index(rest, "]"); end > 0 {
			return rest[1:end]
		}
		return ""
	}
	host, _, _ := strings.Cut(rest, ":")
	return host
}

// Extract returns the hostnames of every absolute URL in text, plus any blocked entry that
// appears verbatim (case-insensitively) anywhere in the text.
func Extract(text string, blocked []string) []string {
	seen := make(map[string]struct{})
	for _, match := range urlRegex.FindAllString(text, -1) {
		if host := hostOf(match); host != "" {
			seen[host] = struct{}{}
		}
	}

	low := strings.ToLower(text)
	for _, d := range blocked {
		if d != "" && strings.Contains(low, d) {
			seen[d] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

// matches reports whether d equals entry or is one of its subdomains.
func matches(d, entry string) bool {
	return d == entry || strings.HasSuffix(d, "."+entry)
}

func matchesAny(d string, entries []string) bool {
	for _, e := range entries {
		if matches(d, e) {
			return true
		}
	}
	return false
}

// Classify returns the sorted subset of domains that the lists forbid. Block-listed domains
// (and their subdomains) always fail; with a non-empty allow-list everything outside it fails too.
func Classify(domains, allowed, blocked []string) []string {
	var out []string
	for _, d := range domains {
		switch {
		case matchesAny(d, blocked):
			out = append(out, d)
		case len(allowed) > 0 && !matchesAny(d, allowed):
			out = append(out, d)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Lists is a community's pair of allow and block lists. Both are kept sorted and disjoint.
type Lists struct {
	Allowed []string
	Blocked []string
}

// Allow adds raw to the allow-list, removing it from the block-list. It returns the normalized domain.
func (l *Lists) Allow(raw string) (string, error) {
	d := Normalize(raw)
	if d == "" {
		return "", ErrEmptyDomain
	}
	l.Blocked = remove(l.Blocked, d)
	l.Allowed = insert(l.Allowed, d)
	return d, nil
}

// Block adds raw to the block-list, removing it from the allow-list. It returns the normalized domain.
func (l *Lists) Block(raw string) (string, error) {
	d := Normalize(raw)
	if d == "" {
		return "", ErrEmptyDomain
	}
	l.Allowed = remove(l.Allowed, d)
	l.Blocked = insert(l.Blocked, d)
	return d, nil
}

// Violations extracts the domains of text and classifies them against the lists.
func (l Lists) Violations(text string) []string {
	domains := Extract(text, l.Blocked)
	if len(domains) == 0 {
		return nil
	}
	return Classify(domains, l.Allowed, l.Blocked)
}

// Clean normalizes, sorts and de-duplicates a stored list.
func Clean(list []string) []string {
	out := make([]string, 0, len(list))
	for _, d := range list {
		if d = Normalize(d); d != "" {
			out = append(out, d)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func insert(list []string, d string) []string {
	i, found := slices.BinarySearch(list, d)
	if found {
		return list
	}
	return slices.Insert(list, i, d)
}

func remove(list []string, d string) []string {
	return slices.DeleteFunc(list, func(s string) bool { return s == d })
}
