package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

var defaultAllowedHosts = map[string]struct{}{
	"github.com": {},
}

// ValidateSourceURL checks the engine download URL. Hosts outside
// allowedHosts are rejected, and plain http is accepted only for loopback
// mirrors.
func ValidateSourceURL(raw string, allowedHosts []string) error {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid YTDLP_URL: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("invalid YTDLP_URL %q: absolute URL with host is required", raw)
	}
	if u.User != nil {
		return fmt.Errorf("invalid YTDLP_URL %q: userinfo is not allowed", raw)
	}
	if u.Fragment != "" {
		return fmt.Errorf("invalid YTDLP_URL %q: fragment is not allowed", raw)
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("invalid YTDLP_URL %q: host is required", raw)
	}
	if isLoopback(host) {
		if scheme != "https" && scheme != "http" {
			return fmt.Errorf("invalid YTDLP_URL %q: http(s) is required", raw)
		}
		return nil
	}
	if scheme != "https" {
		return fmt.Errorf("invalid YTDLP_URL %q: https is required", raw)
	}

	allowed := normalizeAllowedHosts(allowedHosts)
	if _, ok := allowed[host]; !ok {
		return fmt.Errorf("invalid YTDLP_URL %q: host %q is not in YTCLIP_ALLOWED_HOSTS", raw, host)
	}
	return nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func normalizeAllowedHosts(allowedHosts []string) map[string]struct{} {
	if len(allowedHosts) == 0 {
		return defaultAllowedHosts
	}

	out := make(map[string]struct{}, len(allowedHosts))
	for _, h := range allowedHosts {
		v := strings.ToLower(strings.TrimSpace(h))
		v = strings.TrimPrefix(v, "http://")
		v = strings.TrimPrefix(v, "https://")
		v = strings.Trim(v, "/")
		if v == "" {
			continue
		}
		if i := strings.Index(v, ":"); i >= 0 {
			v = v[:i]
		}
		out[v] = struct{}{}
	}
	if len(out) == 0 {
		return defaultAllowedHosts
	}
	return out
}

// splitList parses a comma separated env value.
func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
