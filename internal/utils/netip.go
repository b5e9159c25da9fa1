package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// hostOnly strips a port from "ip:port" or "[v6]:port"; other input is returned trimmed.
func hostOnly(s string) string {
	s = strings.TrimSpace(s)
	if h, _, err := net.SplitHostPort(s); err == nil {
		return h
	}
	return s
}

// ClientIP resolves the caller address. Proxy headers (X-Forwarded-For
// left-most, then X-Real-IP) are honoured only when trustProxy is set.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := hostOnly(first); ip != "" {
				return ip
			}
		}
		if ip := hostOnly(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}
	return hostOnly(r.RemoteAddr)
}

// PrefixSet matches addresses against a list of CIDRs and bare IPs.
type PrefixSet struct {
	prefixes []netip.Prefix
}

// NewPrefixSet parses list; bare IPs become single-address prefixes.
// Entries that parse as neither are returned in invalid.
func NewPrefixSet(list []string) (set *PrefixSet, invalid []string) {
	set = &PrefixSet{}
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			set.prefixes = append(set.prefixes, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(s); err == nil {
			set.prefixes = append(set.prefixes, netip.PrefixFrom(a.Unmap(), a.Unmap().BitLen()))
			continue
		}
		invalid = append(invalid, s)
	}
	return set, invalid
}

func (s *PrefixSet) Empty() bool { return len(s.prefixes) == 0 }

// Contains reports whether ip falls in any prefix. Unparseable input never matches.
func (s *PrefixSet) Contains(ip string) bool {
	a, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range s.prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}
