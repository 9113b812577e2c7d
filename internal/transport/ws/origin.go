package ws

import (
	"net/http"
	"net/url"
	"strings"
)

// originPolicy: пустой список или "*" — пускаем всех. Запрос без Origin
// (не браузер) пропускаем всегда.
type originPolicy struct {
	allowAll bool
	allowed  map[string]struct{}
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{allowed: make(map[string]struct{})}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if o == "*" {
			p.allowAll = true
			continue
		}
		if n, ok := normalizeOrigin(o); ok {
			p.allowed[n] = struct{}{}
		}
	}
	if len(p.allowed) == 0 {
		p.allowAll = true
	}
	return p
}

func (p originPolicy) check(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || p.allowAll {
		return true
	}
	n, ok := normalizeOrigin(origin)
	if !ok {
		return false
	}
	_, ok = p.allowed[n]
	return ok
}

func normalizeOrigin(origin string) (string, bool) {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), true
}
