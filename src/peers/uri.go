package peers

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"
)

// ParseNeighbor parses a udp://host:port URI and resolves the host.
func ParseNeighbor(uri string, resolve Resolver) (*Neighbor, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid neighbor uri %q: %w", uri, err)
	}

	if u.Scheme != "udp" {
		return nil, fmt.Errorf("invalid neighbor uri %q: scheme should be udp", uri)
	}

	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("invalid neighbor uri %q: missing host", uri)
	}

	port, err := strconv.Atoi(u.Port())
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid neighbor uri %q: invalid port", uri)
	}

	ip := host
	if net.ParseIP(host) == nil {
		addrs, err := resolve(host)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", host, err)
		}
		if len(addrs) == 0 {
			return nil, fmt.Errorf("resolving %s: no address", host)
		}
		ip = addrs[0]
	}

	return NewNeighbor(host, ip, port), nil
}

// ParseNeighbors parses a list of URIs. Invalid URIs and hosts that do not
// resolve are logged and skipped.
func ParseNeighbors(uris []string, resolve Resolver, logger *logrus.Entry) []*Neighbor {
	res := make([]*Neighbor, 0, len(uris))
	for _, uri := range uris {
		nb, err := ParseNeighbor(uri, resolve)
		if err != nil {
			logger.WithError(err).WithField("uri", uri).Warn("Skipping neighbor")
			continue
		}
		res = append(res, nb)
	}
	return res
}
