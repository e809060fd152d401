package urlsafety

import (
	"context"
	"net"
	"net/netip"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Resolver looks up the IPv4 A records of a hostname.
type Resolver interface {
	LookupIPv4(ctx context.Context, host string) ([]netip.Addr, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, host string) ([]netip.Addr, error)

func (f ResolverFunc) LookupIPv4(ctx context.Context, host string) ([]netip.Addr, error) {
	return f(ctx, host)
}

const DefaultResolverTimeout = 2 * time.Second

// NetResolver resolves through the system resolver with a per-lookup timeout
// and an optional query rate limit.
type NetResolver struct {
	resolver *net.Resolver
	timeout  time.Duration
	limiter  *rate.Limiter
}

// NewNetResolver returns a resolver bounded by timeout. qps <= 0 disables rate
// limiting.
func NewNetResolver(timeout time.Duration, qps float64) *NetResolver {
	if timeout <= 0 {
		timeout = DefaultResolverTimeout
	}
	r := &NetResolver{resolver: net.DefaultResolver, timeout: timeout}
	if qps > 0 {
		burst := int(qps)
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(qps), burst)
	}
	return r
}

func (r *NetResolver) LookupIPv4(ctx context.Context, host string) ([]netip.Addr, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "urlsafety: dns rate limit")
		}
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	addrs, err := r.resolver.LookupNetIP(ctx, "ip4", host)
	if err != nil {
		return nil, eris.Wrapf(err, "urlsafety: lookup %s", host)
	}
	return addrs, nil
}
