package http

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
)

func encodeJSONResponse[T any](w http.ResponseWriter, code int, data T) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if code == http.StatusNoContent {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// getClientIP prefers proxy headers over the connection address.
func getClientIP(req *http.Request) string {
	out := req.Header.Get("X-Original-Forwarded-For")
	if out == "" {
		if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
			out = strings.TrimSpace(strings.Split(xff, ",")[0])
		}
	}
	if out == "" {
		host, _, err := net.SplitHostPort(req.RemoteAddr)
		if err != nil {
			host = req.RemoteAddr
		}
		out = host
	}

	if ip := net.ParseIP(out); out != "" && ip != nil {
		if ip.IsLoopback() {
			return "127.0.0.1"
		}

		return out
	}

	return "0.0.0.0"
}
