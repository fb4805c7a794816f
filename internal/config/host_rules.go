package config

import (
	"net"
	"strings"
)

// HostRule binds a credential to a host.
type HostRule struct {
	Host  string `mapstructure:"host"`
	Token string `mapstructure:"token"`
}

// HostRules resolves credentials by host identity.
type HostRules []HostRule

// Find returns the token for host, matching host:port first and the bare hostname second.
// It returns "" when no rule applies.
func (r HostRules) Find(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return ""
	}
	for _, rule := range r {
		if strings.EqualFold(rule.Host, host) {
			return strings.TrimSpace(rule.Token)
		}
	}
	hostname := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		hostname = h
	}
	for _, rule := range r {
		if strings.EqualFold(rule.Host, hostname) {
			return strings.TrimSpace(rule.Token)
		}
	}
	return ""
}
