package crawler

import (
	"net/url"
	"path"
	"strings"
)

// pathFilter decides from the URL path whether a discovered link may be
// enqueued. Ignore patterns win over follow patterns. With no follow
// patterns every path that is not ignored is allowed.
type pathFilter struct {
	ignore []string
	follow []string
}

// allows reports whether target passes the filter. Unparseable URLs never do.
func (f pathFilter) allows(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return f.allowsPath(u.Path)
}

func (f pathFilter) allowsPath(p string) bool {
	if p == "" {
		p = "/"
	}

	for _, pattern := range f.ignore {
		if matchPattern(pattern, p) {
			return false
		}
	}
	if len(f.follow) == 0 {
		return true
	}
	for _, pattern := range f.follow {
		if matchPattern(pattern, p) {
			return true
		}
	}
	return false
}

// empty reports whether the filter lets everything through.
func (f pathFilter) empty() bool {
	return len(f.ignore) == 0 && len(f.follow) == 0
}

// matchPattern reports whether a URL path matches a glob pattern.
//   - "/docs/*" and "/docs/**" match "/docs" and everything below it
//   - "*.pdf" matches any path ending in ".pdf"
//   - otherwise path.Match semantics apply, with patterns lacking a "/"
//     also tried against the last path segment
func matchPattern(pattern, p string) bool {
	for _, suffix := range []string{"/**", "/*"} {
		if prefix, ok := strings.CutSuffix(pattern, suffix); ok {
			if p == prefix || strings.HasPrefix(p, prefix+"/") {
				return true
			}
		}
	}

	if ext, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(ext, ".") && !strings.ContainsAny(ext, "*?[") {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}

	if matched, err := path.Match(pattern, p); err == nil && matched {
		return true
	}

	if strings.ContainsAny(pattern, "*?") && !strings.Contains(pattern, "/") {
		if matched, err := path.Match(pattern, path.Base(p)); err == nil && matched {
			return true
		}
	}
	return false
}
