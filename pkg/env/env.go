package env

import (
	"os"
	"strings"
)

// First returns the first non-blank value among keys, checked in order.
func First(keys ...string) (string, bool) {
	for _, key := range keys {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			return val, true
		}
	}
	return "", false
}

// Get returns the value of key, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if val, ok := First(key); ok {
		return val
	}
	return fallback
}
