// Package validate guards outbound fetches against Server-Side Request
// Forgery. CheckURL is pure and total: no I/O, no side effects, and it must
// run before every network attempt for a user-supplied URL, retries included.
package validate

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// metadataIP is the cloud instance-metadata address present on every major
// provider.
const metadataIP = "169.254.169.254"

// CheckURL returns nil when the URL is safe to fetch, or an error naming the
// rejection reason.
func CheckURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format")
	}

	// Scheme first: file:// and friends have no host, and the protocol
	// rejection is the more precise reason.
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "" && scheme != "http" && scheme != "https" {
		return fmt.Errorf("only HTTP and HTTPS protocols are allowed")
	}
	if scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid URL format")
	}

	hostname := strings.ToLower(parsed.Hostname())
	if hostname == "" {
		return fmt.Errorf("invalid URL format")
	}

	if hostname == "localhost" || strings.HasSuffix(hostname, ".localhost") {
		return fmt.Errorf("cannot fetch from localhost")
	}

	if hostname == metadataIP || strings.Contains(hostname, "metadata") {
		return fmt.Errorf("cannot fetch from metadata endpoints")
	}

	if ip := net.ParseIP(hostname); ip != nil {
		return checkIP(ip)
	}

	return nil
}

// checkIP rejects literal addresses in loopback, private, and link-local
// ranges. Hostnames resolving to these ranges are not re-validated here;
// the validator is pure and DNS rebinding is out of scope.
func checkIP(ip net.IP) error {
	switch {
	case ip.IsLoopback():
		return fmt.Errorf("cannot fetch from localhost")
	case ip.IsPrivate():
		return fmt.Errorf("cannot fetch from private IP addresses")
	case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast():
		return fmt.Errorf("cannot fetch from link-local addresses")
	case ip.IsUnspecified():
		return fmt.Errorf("cannot fetch from unspecified addresses")
	}
	return nil
}
