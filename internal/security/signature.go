package security

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// SignatureHeader carries the provider's HMAC over the webhook delivery.
const SignatureHeader = "X-Twilio-Signature"

// SignatureValidator verifies that a webhook request originated from the
// telephony provider.
//
// Provider scheme: base64(HMAC-SHA1(secret, url + k1v1k2v2...)) where the form
// parameters are concatenated in key-sorted order and url is the full public
// URL the provider delivered to (scheme + host + path + query).
//
// The validator never sees a request body reader; callers pass the parsed form
// so validation and parsing agree on the exact parameter set.
type SignatureValidator struct {
	secret []byte

	// baseURL is the externally visible origin (scheme + host). Behind a
	// proxy r.Host is the internal hop, so the signed URL must be rebuilt
	// from configuration.
	baseURL string
}

func NewSignatureValidator(secret, publicBaseURL string) *SignatureValidator {
	return &SignatureValidator{
		secret:  []byte(secret),
		baseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Validate reports whether the request carries a correct provider signature.
// It fails closed: missing secret, missing header, or digest mismatch all
// return false. No state may be mutated before this check passes.
func (v *SignatureValidator) Validate(r *http.Request, form url.Values) bool {
	if len(v.secret) == 0 {
		return false
	}
	got := r.Header.Get(SignatureHeader)
	if got == "" {
		return false
	}
	want := v.Expected(v.baseURL+r.URL.RequestURI(), form)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// Expected computes the signature the provider would send for a given URL and
// form body. Exposed so tests and local tooling can sign requests.
func (v *SignatureValidator) Expected(fullURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		for _, val := range form[k] {
			b.WriteString(k)
			b.WriteString(val)
		}
	}

	mac := hmac.New(sha1.New, v.secret)
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// TruncateSignature shortens a signature for alert payloads so the full digest
// never lands in logs.
func TruncateSignature(sig string) string {
	const keep = 12
	if len(sig) <= keep {
		return sig
	}
	return sig[:keep] + "..."
}
