package handler

import (
	"net/url"
	"strings"
)

// RedirectPolicy decides where a submission may send the browser afterwards.
type RedirectPolicy struct {
	allowedHosts map[string]struct{}
}

func NewRedirectPolicy(allowedHosts []string) *RedirectPolicy {
	hosts := make(map[string]struct{}, len(allowedHosts))
	for _, h := range allowedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			hosts[h] = struct{}{}
		}
	}
	return &RedirectPolicy{allowedHosts: hosts}
}

// Resolve returns requested if it is allowed, else fallback if that is
// allowed, else "/".
func (p *RedirectPolicy) Resolve(requested, fallback string) string {
	if p.Allowed(requested) {
		return requested
	}
	if p.Allowed(fallback) {
		return fallback
	}
	return "/"
}

// Allowed accepts a same-site path or an http(s) URL on an allowed host.
func (p *RedirectPolicy) Allowed(target string) bool {
	if target == "" {
		return false
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}

	if strings.HasPrefix(target, "/") {
		// "//host" and "/\host" are treated as network paths by browsers
		return !strings.HasPrefix(target, "//") && !strings.HasPrefix(target, `/\`) && u.Host == ""
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	_, ok := p.allowedHosts[strings.ToLower(u.Hostname())]
	return ok
}

// WithSentFlag sets <form>_sent=1|0 on target, replacing an existing value.
func WithSentFlag(target, form string, sent bool) string {
	u, err := url.Parse(target)
	if err != nil {
		u = &url.URL{Path: "/"}
	}

	flag := "0"
	if sent {
		flag = "1"
	}
	q := u.Query()
	q.Set(form+"_sent", flag)
	u.RawQuery = q.Encode()
	return u.String()
}
