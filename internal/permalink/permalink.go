// Package permalink encodes calculations into shareable URLs and back.
//
// A link carries the mode identifier in "mode", one parameter per role of
// that mode (for example "x" and "y", or "old" and "new") and optionally
// "auto=1" to request an immediate calculation when the link is opened.
package permalink

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"percently/internal/percent"
)

// ErrNoMode is returned when a query carries no mode parameter.
var ErrNoMode = errors.New("permalink: missing mode")

const (
	paramMode = "mode"
	paramAuto = "auto"
)

// Link is the state a permalink reproduces.
type Link struct {
	Mode   percent.Mode
	Params map[string]string
	Auto   bool
}

// Query returns the link as query values. Parameters that are not roles of
// the mode are dropped.
func (l Link) Query() url.Values {
	q := url.Values{}
	q.Set(paramMode, l.Mode.String())
	for _, key := range l.Mode.RoleKeys() {
		if v, ok := l.Params[key]; ok {
			q.Set(key, v)
		}
	}
	if l.Auto {
		q.Set(paramAuto, "1")
	}
	return q
}

// Encode returns the encoded query string without a leading "?".
func (l Link) Encode() string {
	return l.Query().Encode()
}

// URL returns base with its query replaced by the link.
func (l Link) URL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("permalink base %q: %w", base, err)
	}
	u.RawQuery = l.Encode()
	u.Fragment = ""
	return u.String(), nil
}

// FromQuery decodes a link from query values. Only role parameters present
// in q end up in Params.
func FromQuery(q url.Values) (Link, error) {
	name := q.Get(paramMode)
	if name == "" {
		return Link{}, ErrNoMode
	}
	mode, err := percent.ParseMode(name)
	if err != nil {
		return Link{}, err
	}

	link := Link{Mode: mode, Params: map[string]string{}, Auto: q.Get(paramAuto) == "1"}
	for _, key := range mode.RoleKeys() {
		if q.Has(key) {
			link.Params[key] = q.Get(key)
		}
	}
	return link, nil
}

// Parse decodes a link from a full URL or a bare query string.
func Parse(raw string) (Link, error) {
	query := raw
	if i := strings.IndexByte(query, '?'); i >= 0 {
		query = query[i+1:]
	}
	if i := strings.IndexByte(query, '#'); i >= 0 {
		query = query[:i]
	}

	q, err := url.ParseQuery(query)
	if err != nil {
		return Link{}, fmt.Errorf("permalink query %q: %w", query, err)
	}
	return FromQuery(q)
}
