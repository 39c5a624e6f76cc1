package pomacli

import (
	"context"
	"errors"
	"net"
	"net/url"

	"golang.org/x/net/proxy"
)

// Dialer opens the stream connection to the server. *net.Dialer and the
// SOCKS5 dialer returned by NewProxyDialer both satisfy it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

var (
	ErrEmptyProxyURL     = errors.New("proxy URL cannot be empty")
	ErrUnsupportedScheme = errors.New("unsupported proxy scheme")
	ErrInvalidProxyURL   = errors.New("invalid proxy URL")
)

var supportedSchemes = map[string]bool{
	"socks5":  true,
	"socks5h": true,
}

// NewProxyDialer returns a Dialer tunnelling through the SOCKS5 proxy
// described by proxyURL (socks5://[user[:pass]@]host:port).
func NewProxyDialer(proxyURL string) (Dialer, error) {
	if proxyURL == "" {
		return nil, ErrEmptyProxyURL
	}

	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return nil, ErrInvalidProxyURL
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, ErrInvalidProxyURL
	}

	if !supportedSchemes[parsed.Scheme] {
		return nil, ErrUnsupportedScheme
	}

	var auth *proxy.Auth
	if parsed.User != nil {
		pass, _ := parsed.User.Password()
		auth = &proxy.Auth{
			User:     parsed.User.Username(),
			Password: pass,
		}
	}
	d, err := proxy.SOCKS5("tcp", parsed.Host, auth, &net.Dialer{})
	if err != nil {
		return nil, err
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, ErrUnsupportedScheme
	}
	return cd, nil
}
