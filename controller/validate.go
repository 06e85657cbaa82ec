package controller

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"

	"github.com/use-agent/scrapeview/models"
)

// hostProfile maps internationalised hosts to ASCII. STD3 rules are off so
// hosts with underscores, common on intranets, are accepted.
var hostProfile = idna.New(
	idna.MapForLookup(),
	idna.BidiRule(),
	idna.StrictDomainName(false),
)

// NormalizeURL validates operator input and returns the absolute URL to
// submit.
//
// Input is trimmed first; empty input fails with reason "empty". Anything
// that does not parse as an absolute URL with both scheme and host fails
// with reason "malformed". The host is lower-cased and converted to its
// ASCII (punycode) form.
func NormalizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", models.NewValidationError(models.ReasonEmpty, raw)
	}

	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Opaque != "" || u.Hostname() == "" {
		return "", models.NewValidationError(models.ReasonMalformed, raw)
	}

	host, err := normalizeHost(u.Hostname())
	if err != nil {
		return "", models.NewValidationError(models.ReasonMalformed, raw)
	}
	if port := u.Port(); port != "" {
		u.Host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		u.Host = "[" + host + "]"
	} else {
		u.Host = host
	}

	return u.String(), nil
}

func normalizeHost(host string) (string, error) {
	host = strings.ToLower(host)
	if net.ParseIP(host) != nil {
		return host, nil
	}
	return hostProfile.ToASCII(host)
}
