package scrape

import (
	"bytes"
	"net/http"
)

// BlockType describes why a response was treated as blocked.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
	BlockLogin      BlockType = "login_wall"
)

const (
	// challengeMaxBytes bounds the body size treated as a possible challenge
	// page. Full restaurant sites often embed reCAPTCHA on newsletter forms.
	challengeMaxBytes = 10 * 1024
	shellMaxBytes     = 2000
)

type marker struct {
	kind     BlockType
	maxBytes int // 0 matches any size
	all      [][]byte
}

// Checked in order; the first match wins.
var markers = []marker{
	{kind: BlockCloudflare, all: [][]byte{[]byte("checking your browser")}},
	{kind: BlockCloudflare, all: [][]byte{[]byte("cf-browser-verification")}},
	{kind: BlockCloudflare, all: [][]byte{[]byte("cloudflare"), []byte("challenge")}},
	{kind: BlockCaptcha, maxBytes: challengeMaxBytes, all: [][]byte{[]byte("captcha")}},
	{kind: BlockLogin, maxBytes: challengeMaxBytes, all: [][]byte{[]byte("you must log in to continue")}},
	{kind: BlockJSShell, maxBytes: shellMaxBytes, all: [][]byte{[]byte("<noscript"), []byte("javascript")}},
	{kind: BlockJSShell, maxBytes: shellMaxBytes, all: [][]byte{[]byte(`meta http-equiv="refresh"`)}},
}

// DetectBlock reports whether a response is an anti-bot page rather than the
// site itself.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	switch resp.StatusCode {
	case http.StatusForbidden, http.StatusServiceUnavailable:
		if resp.Header.Get("cf-ray") != "" ||
			resp.Header.Get("cf-cache-status") != "" ||
			resp.Header.Get("server") == "cloudflare" {
			return true, BlockCloudflare
		}
	}

	lower := bytes.ToLower(body)
	for _, m := range markers {
		if m.maxBytes > 0 && len(body) >= m.maxBytes {
			continue
		}
		if containsAll(lower, m.all) {
			return true, m.kind
		}
	}
	return false, BlockNone
}

func containsAll(body []byte, subs [][]byte) bool {
	for _, s := range subs {
		if !bytes.Contains(body, s) {
			return false
		}
	}
	return true
}
