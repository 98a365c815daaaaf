package configuration

import (
	"fmt"
	"strings"
)

// RedirectURI returns the configured callback for a platform or the
// default {BACKEND_URL}/{platform}/callback.
func RedirectURI(platform string) string {
	var configured string
	switch platform {
	case "tiktok":
		configured = C.OAuth.TikTok.RedirectURI
	case "instagram":
		configured = C.OAuth.Instagram.RedirectURI
	case "youtube":
		configured = C.OAuth.YouTube.RedirectURI
	}
	if configured != "" {
		if C.App.TLSEnabled && !hasHTTPS(configured) {
			return toHTTPS(configured)
		}
		return configured
	}
	return fmt.Sprintf("%s/%s/callback", strings.TrimRight(C.App.BackendURL, "/"), platform)
}

// FrontendRedirect builds the URL the browser lands on after an OAuth callback.
func FrontendRedirect(query string) string {
	return fmt.Sprintf("%s/platforms?%s", strings.TrimRight(C.App.FrontendURL, "/"), query)
}
