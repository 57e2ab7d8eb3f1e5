package webhook

import (
	"strings"

	"github.com/go-faster/errors"
)

// checkRequiredFields resolves every configured dot-path against the parsed
// body and reports the first path that is absent or null. Deterministic
// rejections like this one are never retried.
func checkRequiredFields(body map[string]any, paths []string) error {
	for _, path := range paths {
		if v, ok := resolvePath(body, path); !ok || v == nil {
			return errors.Errorf("missing required field: %s", path)
		}
	}
	return nil
}

// resolvePath walks a dot-path ("sponsorship.tier.name") through nested
// JSON objects. It returns false when any intermediate segment is missing
// or is not an object.
func resolvePath(body map[string]any, path string) (any, bool) {
	cur := any(body)
	for _, seg := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// sanitize builds a new payload containing only the allow-listed top-level
// keys, shielding processors from unexpected or malicious extra fields.
// A nil allow-list yields an empty payload.
func sanitize(body map[string]any, allowed []string) map[string]any {
	out := make(map[string]any, len(allowed))
	for _, key := range allowed {
		if v, ok := body[key]; ok {
			out[key] = v
		}
	}
	return out
}
