package services

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// DomainPolicy decides which email addresses may register and sign in.
type DomainPolicy struct {
	enabled bool
	allowed map[string]struct{}
}

// NewDomainPolicy parses allowList as comma separated domains.
func NewDomainPolicy(enabled bool, allowList string) DomainPolicy {
	allowed := make(map[string]struct{})
	for _, d := range strings.Split(allowList, ",") {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			allowed[d] = struct{}{}
		}
	}
	return DomainPolicy{enabled: enabled, allowed: allowed}
}

// SplitEmail requires exactly one '@' with non-empty parts on both sides.
func SplitEmail(email string) (local, domain string, ok bool) {
	if strings.Count(email, "@") != 1 {
		return "", "", false
	}
	local, domain, _ = strings.Cut(email, "@")
	if local == "" || domain == "" {
		return "", "", false
	}
	return local, domain, true
}

func (p DomainPolicy) Admit(email string) bool {
	if !p.enabled {
		return true
	}
	if len(p.allowed) == 0 {
		log.Error().
			Str("op", "domain.admit").
			Msg("domain restriction enabled with an empty ALLOWED_EMAIL_DOMAINS, allowing all")
		return true
	}

	_, domain, ok := SplitEmail(strings.TrimSpace(email))
	if !ok {
		return false
	}
	_, ok = p.allowed[strings.ToLower(domain)]
	return ok
}
