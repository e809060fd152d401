// Package urlsafety decides whether a target URL may be handed to the browser
// agent. It rejects non-web schemes and anything that is, or resolves to, a
// private, loopback, link-local, CGNAT or cloud metadata address.
//
// This is a best-effort boundary check, not a firewall. Use NewHTTPClient for
// outbound requests so the address actually connected to is the one checked.
package urlsafety

import (
	"context"
	"fmt"
	"net/netip"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/idna"

	"explorecore/internal/domain"
)

type Options struct {
	Resolver Resolver
	Cache    *Cache
	// FailClosed rejects hostnames that cannot be resolved. The default lets
	// them through since the connection will fail anyway.
	FailClosed bool
	Logger     *zap.Logger
}

type Validator struct {
	resolver   Resolver
	cache      *Cache
	failClosed bool
	log        *zap.Logger
}

func New(opts Options) *Validator {
	v := &Validator{
		resolver:   opts.Resolver,
		cache:      opts.Cache,
		failClosed: opts.FailClosed,
		log:        opts.Logger,
	}
	if v.resolver == nil {
		v.resolver = NewNetResolver(DefaultResolverTimeout, 0)
	}
	if v.cache == nil {
		v.cache = NewCache(DefaultCacheSize, DefaultCacheTTL, nil)
	}
	if v.log == nil {
		v.log = zap.L()
	}
	return v
}

// Validate classifies rawurl. It never returns an error: every failure mode
// ends as either a safe or an unsafe verdict.
func (v *Validator) Validate(ctx context.Context, rawurl string) domain.ValidationResult {
	u, err := url.Parse(strings.TrimSpace(rawurl))
	if err != nil {
		return domain.Unsafe(fmt.Sprintf("invalid URL: %v", err))
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		return domain.Unsafe("invalid URL: missing protocol")
	}
	if scheme != "http" && scheme != "https" {
		return domain.Unsafe(fmt.Sprintf("protocol not allowed: %s:", scheme))
	}
	host := u.Hostname()
	if host == "" {
		return domain.Unsafe("invalid URL: missing hostname")
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		return classifyLiteral(addr)
	}
	name, err := normalizeHost(host)
	if err != nil {
		return domain.Unsafe(fmt.Sprintf("invalid hostname %q: %v", host, err))
	}
	// Width mapping can turn a name into an IP literal or a numeric form.
	if addr, err := netip.ParseAddr(name); err == nil {
		return classifyLiteral(addr)
	}
	if looksNumeric(name) {
		return domain.Unsafe(fmt.Sprintf("ambiguous numeric hostname %s", name))
	}
	return v.checkHostname(ctx, name)
}

func classifyLiteral(addr netip.Addr) domain.ValidationResult {
	if IsBlockedIP(addr) {
		return domain.Unsafe(fmt.Sprintf("blocked IP address %s", addr.WithZone("")))
	}
	return domain.Safe()
}

func normalizeHost(host string) (string, error) {
	ascii, err := idna.Lookup.ToASCII(strings.TrimSuffix(host, "."))
	if err != nil {
		return "", err
	}
	return strings.ToLower(ascii), nil
}

func (v *Validator) checkHostname(ctx context.Context, host string) domain.ValidationResult {
	if res, ok := v.cache.Get(host); ok {
		return res
	}

	addrs, err := v.resolver.LookupIPv4(ctx, host)
	if err != nil || len(addrs) == 0 {
		v.log.Debug("urlsafety: hostname did not resolve",
			zap.String("host", host),
			zap.Bool("fail_closed", v.failClosed),
			zap.Error(err),
		)
		if v.failClosed {
			return domain.Unsafe(fmt.Sprintf("hostname %s could not be resolved", host))
		}
		return domain.Safe()
	}

	res := domain.Safe()
	for _, addr := range addrs {
		if IsBlockedIP(addr) {
			res = domain.Unsafe(fmt.Sprintf("hostname %s resolves to private IP %s", host, addr.Unmap()))
			break
		}
	}
	v.cache.Put(host, res)
	if !res.Safe {
		v.log.Info("urlsafety: rejected hostname", zap.String("host", host), zap.String("reason", res.Reason))
	}
	return res
}
