package secrets

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// EnvLoader reads the named environment variables. Unset ones are omitted.
func EnvLoader(keys ...string) Loader {
	return func() (map[string]string, error) {
		vals := make(map[string]string, len(keys))
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				vals[k] = v
			}
		}
		return vals, nil
	}
}

// FileLoader reads KEY=VALUE lines from path. Blank lines and lines
// starting with # are skipped; surrounding quotes are stripped.
func FileLoader(path string) Loader {
	return func() (map[string]string, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open secrets file: %w", err)
		}
		defer func() { _ = f.Close() }()

		vals := make(map[string]string)
		sc := bufio.NewScanner(f)
		for n := 1; sc.Scan(); n++ {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			k, v, ok := strings.Cut(line, "=")
			if !ok || strings.TrimSpace(k) == "" {
				return nil, fmt.Errorf("secrets file %s:%d: expected KEY=VALUE", path, n)
			}
			vals[strings.TrimSpace(k)] = strings.Trim(strings.TrimSpace(v), `"'`)
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read secrets file: %w", err)
		}
		return vals, nil
	}
}

// Chain merges loaders in order; later loaders win on conflicting keys.
func Chain(loaders ...Loader) Loader {
	return func() (map[string]string, error) {
		out := make(map[string]string)
		for _, l := range loaders {
			vals, err := l()
			if err != nil {
				return nil, err
			}
			for k, v := range vals {
				out[k] = v
			}
		}
		return out, nil
	}
}
