package environment

import (
	"sort"
	"strings"
)

// setEnvKey sets or updates an environment variable. Duplicate entries for
// the key are collapsed into one.
func setEnvKey(env []string, key, value string) []string {
	prefix := key + "="
	out := env[:0]
	replaced := false
	for _, e := range env {
		if !strings.HasPrefix(e, prefix) {
			out = append(out, e)
			continue
		}
		if !replaced {
			out = append(out, key+"="+value)
			replaced = true
		}
	}
	if !replaced {
		out = append(out, key+"="+value)
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
