package builder

import (
	"strings"

	"github.com/hpungsan/studio/internal/errors"
)

// deniedDomains are always reported as taken.
var deniedDomains = map[string]bool{
	"test.com":     true,
	"example.com":  true,
	"google.com":   true,
	"facebook.com": true,
	"twitter.com":  true,
}

// DomainCheckOutput is the result of CheckDomain.
type DomainCheckOutput struct {
	Available bool   `json:"available"`
	Domain    string `json:"domain"`
}

func normalizeDomain(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func domainAvailable(domain string) bool {
	return !deniedDomains[domain]
}

// CheckDomain reports whether a domain name can be registered. No registrar
// is queried; only a fixed deny-list is consulted.
func CheckDomain(name string) (*DomainCheckOutput, error) {
	domain := normalizeDomain(name)
	if domain == "" {
		return nil, errors.NewInvalidRequest("Domain name is required")
	}
	if len(domain) > maxDomainLen {
		return nil, errors.NewFieldError("name", "Ensure this field has no more than 100 characters.")
	}
	return &DomainCheckOutput{Available: domainAvailable(domain), Domain: domain}, nil
}
