package urlsafety

import (
	"net/netip"
	"strings"
)

// blockedV4 lists IPv4 ranges an exploration target may never resolve to.
var blockedV4 = []netip.Prefix{
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"), // link-local, cloud metadata
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"), // CGNAT
	netip.MustParsePrefix("100.100.100.200/32"),
	netip.MustParsePrefix("192.0.2.0/24"),
}

// blockedV6Prefixes are matched against the lowercase text form. This is
// intentionally coarse: everything else in IPv6 is treated as public.
var blockedV6Prefixes = []string{"fe8", "fc", "fd"}

// IsBlockedIP reports whether addr is private, loopback, link-local, CGNAT or
// a known metadata address. IPv4-mapped IPv6 addresses are checked as IPv4.
func IsBlockedIP(addr netip.Addr) bool {
	if !addr.IsValid() {
		return true
	}
	addr = addr.WithZone("").Unmap()
	if addr.Is4() {
		for _, p := range blockedV4 {
			if p.Contains(addr) {
				return true
			}
		}
		return false
	}
	if addr == netip.IPv6Loopback() || addr == netip.IPv6Unspecified() {
		return true
	}
	s := strings.ToLower(addr.String())
	for _, p := range blockedV6Prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// looksNumeric reports whether host is made only of decimal or hex labels,
// e.g. "2130706433" or "0x7f.1". Browsers read these as IPv4 addresses even
// though they are not canonical dotted quads.
func looksNumeric(host string) bool {
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return false
	}
	for _, label := range strings.Split(host, ".") {
		if label == "" {
			return false
		}
		l := strings.ToLower(label)
		if strings.HasPrefix(l, "0x") {
			for _, c := range l[2:] {
				if !strings.ContainsRune("0123456789abcdef", c) {
					return false
				}
			}
			continue
		}
		for _, c := range l {
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}
