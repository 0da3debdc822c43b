package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--color=off"}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheckCommandReportsErrors(t *testing.T) {
	path := writeFile(t, "dup.yaml", `
module:
  - name: main
    decl:
      - {kind: var, name: color, type: half4}
      - {kind: var, name: color, type: half4}
`)
	stdout, stderr, err := execute(t, "check", "--format=pretty", path)
	if !errors.Is(err, errFailed) {
		t.Fatalf("expected errFailed, got %v", err)
	}
	if !strings.Contains(stdout, "ERROR SEM3002: symbol 'color' was already defined") {
		t.Fatalf("diagnostic missing from stdout:\n%s", stdout)
	}
	if !strings.Contains(stdout, "#2 (var color): previous declaration here") {
		t.Fatalf("note missing from stdout:\n%s", stdout)
	}
	if !strings.Contains(stderr, "1 modules checked: 1 error") {
		t.Fatalf("summary missing from stderr:\n%s", stderr)
	}
}

func TestDumpCommandJSON(t *testing.T) {
	path := writeFile(t, "ok.toml", `
[[module]]
name = "main"
  [[module.decl]]
  kind = "var"
  name = "tint"
  type = "half4"
`)
	stdout, _, err := execute(t, "dump", "--format=json", "--module=main", path)
	if err != nil {
		t.Fatalf("dump failed: %v", err)
	}
	if !strings.Contains(stdout, `"name": "main"`) || !strings.Contains(stdout, `"name": "tint"`) {
		t.Fatalf("unexpected dump:\n%s", stdout)
	}
}

func TestBuiltinsCommand(t *testing.T) {
	stdout, _, err := execute(t, "builtins", "--format=pretty", "frag")
	if err != nil {
		t.Fatalf("builtins failed: %v", err)
	}
	if !strings.HasPrefix(stdout, "builtin frag") || !strings.Contains(stdout, "sk_FragColor") {
		t.Fatalf("unexpected listing:\n%s", stdout)
	}
	if _, _, err := execute(t, "builtins", "metal"); err == nil {
		t.Fatalf("unknown module must fail")
	}
}
