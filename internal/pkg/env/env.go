// Package env reads process configuration from environment variables.
// Empty and whitespace-only values count as unset.
package env

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func lookup(k string) string {
	return strings.TrimSpace(os.Getenv(k))
}

// Env returns the value of k, or def when unset.
func Env(k, def string) string {
	v := lookup(k)
	if v == "" {
		return def
	}
	return v
}

// MustEnv returns the value of k and panics when it is unset.
func MustEnv(k string) string {
	v := lookup(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}

// BoolEnv reads an env var as bool. If empty or invalid, returns def.
// strconv.ParseBool accepts: 1,t,T,TRUE,true,True,0,f,F,FALSE,false,False.
func BoolEnv(k string, def bool) bool {
	v := lookup(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// IntEnv reads an env var as a base-10 int. If empty or invalid, returns def.
func IntEnv(k string, def int) int {
	v := lookup(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// DurationEnv reads an env var with time.ParseDuration ("2s", "150ms").
// If empty, invalid or negative, returns def.
func DurationEnv(k string, def time.Duration) time.Duration {
	v := lookup(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return def
	}
	return d
}

// ListEnv splits a comma separated env var, dropping empty items.
func ListEnv(k string, def []string) []string {
	v := lookup(k)
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
