package secrets_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Strob0t/ActionForge/internal/secrets"
)

func static(vals map[string]string) secrets.Loader {
	return func() (map[string]string, error) { return vals, nil }
}

func TestNewVaultLoaderError(t *testing.T) {
	_, err := secrets.NewVault(func() (map[string]string, error) {
		return nil, errors.New("connection refused")
	})
	if err == nil {
		t.Fatal("expected error from failing loader")
	}
}

func TestVaultSourceFollowsReload(t *testing.T) {
	calls := 0
	v, err := secrets.NewVault(func() (map[string]string, error) {
		calls++
		if calls == 1 {
			return map[string]string{"KEY": "old"}, nil
		}
		return map[string]string{"KEY": "new"}, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	key := v.Source("KEY")
	if got := key(); got != "old" {
		t.Fatalf("expected 'old', got %q", got)
	}
	if err := v.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := key(); got != "new" {
		t.Fatalf("expected 'new' after reload, got %q", got)
	}
	if got := v.Get("MISSING"); got != "" {
		t.Errorf("missing key = %q", got)
	}
}

func TestVaultReloadErrorPreservesValues(t *testing.T) {
	calls := 0
	v, _ := secrets.NewVault(func() (map[string]string, error) {
		calls++
		if calls == 1 {
			return map[string]string{"KEY": "original"}, nil
		}
		return nil, errors.New("unavailable")
	})

	if err := v.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if got := v.Get("KEY"); got != "original" {
		t.Fatalf("expected 'original' after failed reload, got %q", got)
	}
}

func TestVaultConcurrentAccess(t *testing.T) {
	v, _ := secrets.NewVault(static(map[string]string{"K": "V"}))

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = v.Get("K")
		}()
		go func() {
			defer wg.Done()
			_ = v.Reload()
		}()
	}
	wg.Wait()
}

func TestEnvLoader(t *testing.T) {
	t.Setenv("AF_TEST_SECRET", "mysecret")
	vals, err := secrets.EnvLoader("AF_TEST_SECRET", "AF_MISSING_SECRET")()
	if err != nil {
		t.Fatal(err)
	}
	if vals["AF_TEST_SECRET"] != "mysecret" {
		t.Errorf("got %q", vals["AF_TEST_SECRET"])
	}
	if _, ok := vals["AF_MISSING_SECRET"]; ok {
		t.Error("unset variables must be omitted")
	}
}

func TestFileLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.env")
	content := "# rotated weekly\n\nLITELLM_MASTER_KEY = \"sk-file\"\nOTHER='x'\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	vals, err := secrets.FileLoader(path)()
	if err != nil {
		t.Fatalf("FileLoader: %v", err)
	}
	if vals["LITELLM_MASTER_KEY"] != "sk-file" || vals["OTHER"] != "x" {
		t.Errorf("unexpected values: %v", vals)
	}

	if err := os.WriteFile(path, []byte("no-equals-sign\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := secrets.FileLoader(path)(); err == nil {
		t.Error("expected error for malformed line")
	}
	if _, err := secrets.FileLoader(filepath.Join(t.TempDir(), "missing"))(); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestChainLaterWins(t *testing.T) {
	l := secrets.Chain(
		static(map[string]string{"A": "env", "B": "env"}),
		static(map[string]string{"A": "file"}),
	)
	vals, err := l()
	if err != nil {
		t.Fatal(err)
	}
	if vals["A"] != "file" || vals["B"] != "env" {
		t.Errorf("unexpected merge: %v", vals)
	}

	failing := secrets.Chain(static(nil), func() (map[string]string, error) { return nil, errors.New("boom") })
	if _, err := failing(); err == nil {
		t.Error("expected chained error")
	}
}
