package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

// execute runs the root command with args and returns what it wrote to
// its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// writeConfig writes an ffs.yaml that keeps caches and preferences in
// memory unless body overrides them.
func writeConfig(t *testing.T, body string) string {
	t.Helper()
	base := "cache:\n  backend: memory\npreference:\n  backend: memory\n"
	if strings.Contains(body, "cache:") || strings.Contains(body, "preference:") {
		base = ""
	}
	path := filepath.Join(t.TempDir(), "ffs.yaml")
	if err := os.WriteFile(path, []byte(base+body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeAssets(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, f := range testAssets() {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, f.Data, 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestBuildCommand(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "index.html")
	if err := os.WriteFile(page, []byte(testPage), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out.html")
	cfgPath := writeConfig(t, "assets: "+writeAssets(t)+"\n")

	if _, err := execute(t, "--config", cfgPath, "build", page, "-o", out, "--theme", "dark"); err != nil {
		t.Fatalf("build: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)
	for _, want := range []string{"ffs-theme-dark", "/ui/scripts/ffs-tooltip.js", "--ffs-bg: #111"} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestBuildCommandInlineToStdout(t *testing.T) {
	page := filepath.Join(t.TempDir(), "index.html")
	if err := os.WriteFile(page, []byte(testPage), 0644); err != nil {
		t.Fatal(err)
	}
	cfgPath := writeConfig(t, "assets: "+writeAssets(t)+"\n")

	html, err := execute(t, "--config", cfgPath, "build", page, "--inline", "--components", "tooltip")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(html, "/* ui/styles/ffs-tooltip.css */") {
		t.Errorf("stylesheet not inlined:\n%s", html)
	}
}

func TestThemeSetAndGet(t *testing.T) {
	prefs := filepath.Join(t.TempDir(), "prefs.json")
	cfgPath := writeConfig(t, "cache:\n  backend: memory\npreference:\n  backend: file\n  path: "+prefs+"\n")

	if _, err := execute(t, "--config", cfgPath, "theme", "set", "--no-verify", "ocean"); err != nil {
		t.Fatalf("theme set: %v", err)
	}
	out, err := execute(t, "--config", cfgPath, "theme", "get")
	if err != nil {
		t.Fatalf("theme get: %v", err)
	}
	if strings.TrimSpace(out) != "ocean" {
		t.Errorf("theme get = %q, want ocean", out)
	}

	if _, err := execute(t, "--config", cfgPath, "theme", "set", "--no-verify", "../x"); err == nil {
		t.Error("invalid theme name accepted")
	}
}

func TestThemeSetVerifies(t *testing.T) {
	cfgPath := writeConfig(t, "assets: "+writeAssets(t)+"\nbase_url: /ui/\n")

	if _, err := execute(t, "--config", cfgPath, "theme", "set", "dark"); err != nil {
		t.Fatalf("theme set dark: %v", err)
	}
	if _, err := execute(t, "--config", cfgPath, "theme", "set", "ocean"); err == nil {
		t.Error("missing theme accepted")
	}
}

func TestComponentsList(t *testing.T) {
	manifest := filepath.Join(t.TempDir(), "ffs.toml")
	data := "components = [\"chart\"]\n\n[register.chart]\nstylesheet = \"styles/ffs-chart.css\"\nscript = \"scripts/ffs-chart.js\"\n"
	if err := os.WriteFile(manifest, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cfgPath := writeConfig(t, "")

	out, err := execute(t, "--config", cfgPath, "components", "list", "--manifest", manifest)
	if err != nil {
		t.Fatalf("components list: %v", err)
	}
	for _, want := range []string{"chart", "tooltip", "styles/ffs-chart.css", "14 components"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ffs.yaml")
	if _, err := execute(t, "--config", path, "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if _, err := execute(t, "--config", path, "config", "init"); err == nil {
		t.Error("second init without --force succeeded")
	}
	if _, err := execute(t, "--config", path, "config", "init", "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	cfgPath := writeConfig(t, "cache:\n  backend: memcached\npreference:\n  backend: memory\n")
	if _, err := execute(t, "--config", cfgPath, "theme", "get"); err == nil {
		t.Error("invalid config accepted")
	}
}

func TestCompletionIgnoresBrokenConfig(t *testing.T) {
	cfgPath := writeConfig(t, "cache:\n  backend: memcached\n")
	out, err := execute(t, "--config", cfgPath, "completion", "bash")
	if err != nil {
		t.Fatalf("completion: %v", err)
	}
	if !strings.Contains(out, "ffs") {
		t.Error("completion script does not mention ffs")
	}
}
