package cli

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/charmbracelet/log"

	"github.com/ffs-ui/ffs/pkg/fetch"
)

const testPage = `<!DOCTYPE html>
<html>
<head><script src="/ui/ffs-ui.js"></script></head>
<body><span class="ffs-tooltip">?</span></body>
</html>`

func testAssets() fstest.MapFS {
	files := fstest.MapFS{}
	for _, p := range []string{
		"ui/libs/jquery.min.js",
		"ui/libs/font-awesome/css/all.min.css",
		"ui/libs/iconfont/iconfont.css",
		"ui/styles/ffs-ui.css",
		"ui/scripts/ffs-components.js",
		"ui/scripts/ffs-theme.js",
		"ui/styles/ffs-tooltip.css",
		"ui/scripts/ffs-tooltip.js",
	} {
		files[p] = &fstest.MapFile{Data: []byte("/* " + p + " */")}
	}
	files["ui/themes/default-vars.json"] = &fstest.MapFile{Data: []byte(`{"--ffs-bg": "#fff"}`)}
	files["ui/themes/dark-vars.json"] = &fstest.MapFile{Data: []byte(`{"--ffs-bg": "#111"}`)}
	return files
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	pages := fstest.MapFS{
		"index.html":      &fstest.MapFile{Data: []byte(testPage)},
		"docs/index.html": &fstest.MapFile{Data: []byte(testPage)},
		"app.css":         &fstest.MapFile{Data: []byte("body{}")},
	}
	a := assembly{
		fetcher: fetch.NewFSFetcher(testAssets()),
		logger:  log.New(io.Discard),
	}
	srv := httptest.NewServer(newPageServer(pages, a))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, string(body)
}

func TestServeAssemblesPage(t *testing.T) {
	srv := newTestServer(t)

	code, body := get(t, srv.URL+"/")
	if code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", code, body)
	}
	for _, want := range []string{
		"/ui/styles/ffs-ui.css",
		"/ui/styles/ffs-tooltip.css",
		"/ui/scripts/ffs-tooltip.js",
		"ffs-theme-default",
		"--ffs-bg: #fff",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestServeThemeQuery(t *testing.T) {
	srv := newTestServer(t)

	code, body := get(t, srv.URL+"/docs/?theme=dark")
	if code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", code, body)
	}
	if !strings.Contains(body, "ffs-theme-dark") || !strings.Contains(body, "--ffs-bg: #111") {
		t.Errorf("dark theme not applied:\n%s", body)
	}

	// The theme of one response does not leak into the next.
	_, body = get(t, srv.URL+"/index.html")
	if strings.Contains(body, "ffs-theme-dark") {
		t.Error("theme leaked between requests")
	}
}

func TestServeErrors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		path string
		want int
	}{
		{"/missing.html", http.StatusNotFound},
		{"/index.html?theme=..%2Fetc", http.StatusBadRequest},
		{"/index.html?theme=ocean", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if code, _ := get(t, srv.URL+tt.path); code != tt.want {
				t.Errorf("status = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestServeStaticAndHealth(t *testing.T) {
	srv := newTestServer(t)

	code, body := get(t, srv.URL+"/app.css")
	if code != http.StatusOK || body != "body{}" {
		t.Errorf("app.css = %d %q", code, body)
	}

	code, body = get(t, srv.URL+"/healthz")
	if code != http.StatusOK || !strings.Contains(body, "ok") {
		t.Errorf("healthz = %d %q", code, body)
	}
}
