package ratelimit

import "strings"

// ClientKey builds a limiter key for a client address on a route.
func ClientKey(route, clientIP string) string {
	route = strings.TrimSpace(route)
	clientIP = strings.TrimSpace(clientIP)
	if route == "" || clientIP == "" {
		return ""
	}
	return route + ":" + clientIP
}
