package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/seasontracker/internal/api"
	"github.com/mantonx/seasontracker/internal/types"
)

// RequireHTTPS rejects requests that did not arrive over TLS. GET and HEAD
// are redirected to the https URL; anything else gets 403 HTTPS_REQUIRED.
// X-Forwarded-Proto is honoured only when the socket peer is one of
// trustedProxies (IPs or CIDRs).
func RequireHTTPS(trustedProxies []string) (gin.HandlerFunc, error) {
	nets, err := parseNetworks(trustedProxies)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		if isHTTPS(c.Request, nets) {
			c.Next()
			return
		}

		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			target := "https://" + stripPort(c.Request.Host) + c.Request.URL.RequestURI()
			c.Redirect(http.StatusMovedPermanently, target)
			c.Abort()
			return
		}

		api.RespondWithError(c, types.NewAppError(
			types.ErrorCodeHTTPSRequired,
			"HTTPS is required",
			http.StatusForbidden,
		))
	}, nil
}

func isHTTPS(r *http.Request, trusted []*net.IPNet) bool {
	if r.TLS != nil {
		return true
	}
	if !strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return false
	}
	peer := net.ParseIP(stripPort(strings.TrimSpace(r.RemoteAddr)))
	if peer == nil {
		return false
	}
	for _, n := range trusted {
		if n.Contains(peer) {
			return true
		}
	}
	return false
}

func parseNetworks(entries []string) ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", entry)
			}
			bits := 32
			if ip.To4() == nil {
				bits = 128
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
