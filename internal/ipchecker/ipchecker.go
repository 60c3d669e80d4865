// Package ipchecker works out which client an HTTP request came from.
// Forwarding headers are believed only when the direct peer sits in the
// trusted proxy subnet.
package ipchecker

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

type IPChecker struct {
	trustedSubnet *net.IPNet
}

// New accepts a CIDR such as "10.0.0.0/8". An empty string trusts no proxy.
func New(trustedSubnet string) (*IPChecker, error) {
	if trustedSubnet == "" {
		return &IPChecker{}, nil
	}
	_, allowedNet, err := net.ParseCIDR(trustedSubnet)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/New(): error while `net.ParseCIDR()` calling: %w", err)
	}

	return &IPChecker{trustedSubnet: allowedNet}, nil
}

// Trusted reports whether ip is inside the trusted proxy subnet.
func (checker *IPChecker) Trusted(ip net.IP) bool {
	return checker.trustedSubnet != nil && ip != nil && checker.trustedSubnet.Contains(ip)
}

// ClientIP returns the address the request should be attributed to. For a
// trusted peer that is X-Real-IP, then the first X-Forwarded-For entry;
// otherwise it is the peer itself. The result is a string key suitable for
// per-client bookkeeping.
func (checker *IPChecker) ClientIP(request *http.Request) string {
	peer := remoteIP(request.RemoteAddr)
	if !checker.Trusted(peer) {
		if peer == nil {
			return request.RemoteAddr
		}
		return peer.String()
	}

	if ip := net.ParseIP(strings.TrimSpace(request.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	if xff := request.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}

	return peer.String()
}

func remoteIP(remoteAddr string) net.IP {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return net.ParseIP(remoteAddr)
	}

	return net.ParseIP(host)
}
