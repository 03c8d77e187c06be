package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPrefersFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "key")
	if err := os.WriteFile(path, []byte("  from-file \n"), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}
	t.Setenv("JDM_TEST_SECRET", "from-env")

	got, err := Load(Source{Name: "api key", File: path, Env: "JDM_TEST_SECRET", Value: "inline"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-file" {
		t.Fatalf("expected file secret, got %q", got)
	}
}

func TestLoadEnvThenValue(t *testing.T) {
	t.Setenv("JDM_TEST_SECRET", " from-env ")

	got, err := Load(Source{Env: "JDM_TEST_SECRET", Value: "inline"})
	if err != nil || got != "from-env" {
		t.Fatalf("expected env secret, got %q (%v)", got, err)
	}

	got, err = Load(Source{Env: "JDM_UNSET_SECRET", Value: " inline "})
	if err != nil || got != "inline" {
		t.Fatalf("expected inline secret, got %q (%v)", got, err)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, []byte("   "), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}

	tests := []struct {
		name string
		src  Source
		want string
	}{
		{name: "missing file", src: Source{Name: "token", File: filepath.Join(dir, "nope")}, want: "reading token from file"},
		{name: "empty file", src: Source{Name: "token", File: empty}, want: "is empty"},
		{name: "nothing configured", src: Source{}, want: "secret is not configured"},
		{name: "env hint", src: Source{Name: "token", Env: "JDM_UNSET_SECRET"}, want: "$JDM_UNSET_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.src)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestOptional(t *testing.T) {
	got, err := Optional(Source{Name: "redis password"})
	if err != nil || got != "" {
		t.Fatalf("expected empty optional secret, got %q (%v)", got, err)
	}

	got, err = Optional(Source{Value: "pw"})
	if err != nil || got != "pw" {
		t.Fatalf("expected inline optional secret, got %q (%v)", got, err)
	}
}
