package tracker

import "strings"

// Browser identifies the browser family hosting the extension. It becomes the
// browser_name field of every context update.
type Browser string

const (
	BrowserChrome Browser = "chrome"
	BrowserEdge   Browser = "edge"
)

// Edge keeps the Chromium user agent and appends its own "Edg/<version>"
// product token.
const edgeMarker = "Edg"

// Identify classifies the hosting browser from its user-agent signature.
// It is called once at startup; the signature cannot change at runtime, so
// the result is cached by the caller for the process lifetime.
func Identify(signature string) Browser {
	if strings.Contains(signature, edgeMarker) {
		return BrowserEdge
	}
	return BrowserChrome
}
