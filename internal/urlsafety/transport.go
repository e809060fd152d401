package urlsafety

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"time"

	"github.com/rotisserie/eris"
)

// ErrBlockedAddress is returned when an outbound connection or redirect would
// reach a blocked address.
var ErrBlockedAddress = eris.New("urlsafety: blocked address")

const DefaultMaxRedirects = 10

type ClientOptions struct {
	Timeout      time.Duration
	MaxRedirects int
}

// NewHTTPClient returns a client that resolves hosts itself, refuses blocked
// addresses and connects to the exact IP it checked. Every redirect target is
// validated again before it is followed.
func NewHTTPClient(v *Validator, opts ClientOptions) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = DefaultMaxRedirects
	}
	transport := &http.Transport{
		Proxy:                 nil,
		DialContext:           v.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout:       opts.Timeout,
		Transport:     transport,
		CheckRedirect: redirectPolicy(v, opts.MaxRedirects),
	}
}

func redirectPolicy(v *Validator, maxRedirects int) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return eris.Errorf("urlsafety: stopped after %d redirects", len(via))
		}
		if res := v.Validate(req.Context(), req.URL.String()); !res.Safe {
			return eris.Wrapf(ErrBlockedAddress, "redirect to %s: %s", req.URL.Redacted(), res.Reason)
		}
		return nil
	}
}

// DialContext dials one of the validated addresses of address's host instead
// of letting the dialer resolve it again.
func (v *Validator) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return nil, eris.Wrapf(err, "urlsafety: split %s", address)
	}
	addrs, err := v.pinnedAddrs(ctx, host)
	if err != nil {
		return nil, err
	}
	var d net.Dialer
	var lastErr error
	for _, addr := range addrs {
		conn, err := d.DialContext(ctx, network, net.JoinHostPort(addr.String(), port))
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	return nil, eris.Wrapf(lastErr, "urlsafety: dial %s", host)
}

func (v *Validator) pinnedAddrs(ctx context.Context, host string) ([]netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		if IsBlockedIP(addr) {
			return nil, eris.Wrapf(ErrBlockedAddress, "dial %s", addr)
		}
		return []netip.Addr{addr}, nil
	}
	name, err := normalizeHost(host)
	if err != nil {
		return nil, eris.Wrapf(err, "urlsafety: normalize %s", host)
	}
	if addr, err := netip.ParseAddr(name); err == nil {
		if IsBlockedIP(addr) {
			return nil, eris.Wrapf(ErrBlockedAddress, "dial %s", addr)
		}
		return []netip.Addr{addr}, nil
	}
	if looksNumeric(name) {
		return nil, eris.Wrapf(ErrBlockedAddress, "ambiguous numeric hostname %s", name)
	}
	addrs, err := v.resolver.LookupIPv4(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, eris.Errorf("urlsafety: no addresses for %s", name)
	}
	for _, addr := range addrs {
		if IsBlockedIP(addr) {
			return nil, eris.Wrapf(ErrBlockedAddress, "%s resolves to %s", name, addr.Unmap())
		}
	}
	return addrs, nil
}
