package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	landingPath = "/"
	feedPath    = "/feed"
	loginPath   = "/login"

	maxRequestBytes = 64 << 10
)

type errorResponse struct {
	Error string `json:"error"`
}

type okResponse struct {
	OK         bool   `json:"ok"`
	RedirectTo string `json:"redirectTo,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, errorResponse{Error: code})
}

// decodeJSON reads a small JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(v)
	if err == io.EOF {
		return nil
	}
	return err
}

// queryComponent escapes s the way a browser's encodeURIComponent would for
// the characters that matter in a query value.
func queryComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// loginError builds "/login?error=<code>" followed by any extra key/value
// pairs.
func loginError(code string, pairs ...string) string {
	var b strings.Builder
	b.WriteString(loginPath + "?error=")
	b.WriteString(queryComponent(code))
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString("&" + pairs[i] + "=")
		b.WriteString(queryComponent(pairs[i+1]))
	}
	return b.String()
}

// localPath returns target when it is a path on this site, fallback otherwise.
func localPath(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return fallback
	}

	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return target
}
