// Package paylink encodes and decodes creator payment requests to and
// from the portable tip-link payload carried in QR codes and deep
// links.
package paylink

import (
	"errors"
	"net/url"
	"strings"

	"github.com/soltip/soltip/types"
)

// Decode failure values. Decoding is pure and total: every failure is
// returned, never raised.
var (
	// The payload is not a parseable URI.
	ErrMalformed = errors.New("paylink: malformed payload")

	// The payload parses but carries neither the hostname marker nor
	// the scheme marker.
	ErrUnrecognized = errors.New("paylink: unrecognized payload")

	// The payload is a tip link but lacks the mandatory address
	// parameter.
	ErrMissingAddress = errors.New("paylink: missing address parameter")
)

// Codec translates between PaymentRequest values and tip-link
// payloads. Encoding is deterministic and order-stable so QR
// regeneration is visually stable across renders.
type Codec struct {
	host   string
	scheme string
}

// NewCodec builds a codec recognizing the given hostname marker and
// custom scheme marker. Either may be empty, not both.
func NewCodec(host, scheme string) *Codec {
	return &Codec{host: host, scheme: scheme}
}

// Encode renders a payment request as a shareable tip link. The path
// segment is the normalized handle; address, name, bio and avatar ride
// in the query, percent-escaped, in that order. Absent optionals are
// omitted. A codec with no hostname marker renders the custom scheme
// instead, so every encoded link is recognized by Decode.
func (c *Codec) Encode(req types.PaymentRequest) string {
	var b strings.Builder
	if c.host != "" {
		b.WriteString("https://")
		b.WriteString(c.host)
		b.WriteString("/pay/")
	} else {
		b.WriteString(c.scheme)
		b.WriteString("://pay/")
	}
	b.WriteString(url.PathEscape(Handle(req.Name)))
	b.WriteString("?address=")
	b.WriteString(url.QueryEscape(req.Address))

	if req.Name != "" {
		b.WriteString("&name=")
		b.WriteString(url.QueryEscape(req.Name))
	}
	if req.Bio != "" {
		b.WriteString("&bio=")
		b.WriteString(url.QueryEscape(req.Bio))
	}
	if req.Avatar != "" {
		b.WriteString("&avatar=")
		b.WriteString(url.QueryEscape(req.Avatar))
	}

	return b.String()
}

// Decode parses a scanned or linked payload into a PaymentRequest.
// Payloads are recognized by the hostname marker or the scheme marker;
// anything else is ErrUnrecognized. Duplicate query parameters resolve
// first-value-wins.
func (c *Codec) Decode(payload string) (types.PaymentRequest, error) {
	u, err := url.Parse(payload)
	if err != nil {
		return types.PaymentRequest{}, ErrMalformed
	}

	if !c.recognizes(u) {
		return types.PaymentRequest{}, ErrUnrecognized
	}

	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return types.PaymentRequest{}, ErrMalformed
	}

	address := query.Get("address")
	if address == "" {
		return types.PaymentRequest{}, ErrMissingAddress
	}

	return types.PaymentRequest{
		Address: address,
		Name:    query.Get("name"),
		Bio:     query.Get("bio"),
		Avatar:  query.Get("avatar"),
	}, nil
}

func (c *Codec) recognizes(u *url.URL) bool {
	if c.host != "" && strings.EqualFold(u.Host, c.host) {
		return true
	}
	if c.scheme != "" && strings.EqualFold(u.Scheme, c.scheme) {
		return true
	}
	return false
}

// Handle derives the URL-safe path segment from a display name:
// lower-cased, all whitespace stripped. Empty names fall back to
// "tip".
func Handle(name string) string {
	h := strings.ToLower(strings.Join(strings.Fields(name), ""))
	if h == "" {
		return "tip"
	}
	return h
}
