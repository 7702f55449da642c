// Package redisinfo parses the text payload returned by the redis INFO
// command. Lines are CRLF separated "key:value" pairs; section headers start
// with '#'.
package redisinfo

import (
	"strconv"
	"strings"
)

// Parse splits an INFO payload into key/value pairs. Section headers, blank
// lines, and malformed lines are skipped.
func Parse(s string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		out[k] = v
	}
	return out
}

// Int reads fields[key] as a base-10 integer.
func Int(fields map[string]string, key string) (int64, bool) {
	v, ok := fields[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
