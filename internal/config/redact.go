package config

import (
	"net/url"
	"strings"
)

const redacted = "***"

// RedactURL masks the password of a database URL so it can be logged or
// printed. Both the userinfo password and a password query parameter are
// masked. SQLite URLs, URLs without credentials and strings that do not
// parse are returned unchanged.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Scheme == "sqlite" {
		return raw
	}

	out := raw

	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			out = redactUserinfo(out)
		}
	}

	if u.Query().Has("password") {
		out = redactQueryPassword(out)
	}

	return out
}

// redactUserinfo splices the mask in place of everything between the first
// ':' of the userinfo and the last '@' of the authority. url.URL.String would
// percent-encode the mask.
func redactUserinfo(raw string) string {
	start := strings.Index(raw, "://")
	if start < 0 {
		return raw
	}

	start += len("://")

	authority := raw[start:]
	if end := strings.IndexAny(authority, "/?#"); end >= 0 {
		authority = authority[:end]
	}

	at := strings.LastIndex(authority, "@")
	colon := strings.Index(authority, ":")

	if at < 0 || colon < 0 || colon > at {
		return raw
	}

	return raw[:start] + authority[:colon+1] + redacted + raw[start+at:]
}

func redactQueryPassword(raw string) string {
	q := strings.Index(raw, "?")
	if q < 0 {
		return raw
	}

	query, frag, hasFrag := strings.Cut(raw[q+1:], "#")
	pairs := strings.Split(query, "&")

	for i, p := range pairs {
		if k, _, _ := strings.Cut(p, "="); k == "password" {
			pairs[i] = "password=" + redacted
		}
	}

	out := raw[:q+1] + strings.Join(pairs, "&")
	if hasFrag {
		out += "#" + frag
	}

	return out
}
