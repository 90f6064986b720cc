package cli

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/ffs-ui/ffs/pkg/dom"
	ffserrors "github.com/ffs-ui/ffs/pkg/errors"
	"github.com/ffs-ui/ffs/pkg/preference"
)

const shutdownTimeout = 5 * time.Second

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		opts buildOptions
		addr string
		root string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a directory, assembling HTML pages per request",
		Long: `Serve answers requests from a directory. HTML pages are assembled on
every request; the theme query parameter (?theme=dark) selects the theme of
that response. Other files are served as they are.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Serve.Addr
			}
			if root == "" {
				root = cfg.Serve.Root
			}

			a, closeFn, err := c.newAssembly(cmd, opts)
			if err != nil {
				return err
			}
			defer closeFn()

			return c.listen(cmd.Context(), out(cmd), addr, newPageServer(os.DirFS(root), a))
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&root, "root", "", "directory to serve (default from config)")

	return cmd
}

// listen serves h until ctx is cancelled, then shuts down gracefully.
func (c *CLI) listen(ctx context.Context, p printer, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	p.info("Listening on %s", StyleLink.Render("http://"+addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	p.success("Server stopped")
	return nil
}

// pageServer serves files from root and assembles HTML pages.
type pageServer struct {
	root     fs.FS
	assembly assembly
	router   chi.Router
}

func newPageServer(root fs.FS, a assembly) *pageServer {
	s := &pageServer{root: root, assembly: a}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/*", s.serve)

	s.router = r
	return s
}

func (s *pageServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *pageServer) serve(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+chi.URLParam(r, "*")), "/")
	if name == "" || strings.HasSuffix(r.URL.Path, "/") {
		name = path.Join(name, "index.html")
	}
	if path.Ext(name) != ".html" {
		http.ServeFileFS(w, r, s.root, name)
		return
	}

	data, err := fs.ReadFile(s.root, name)
	if errors.Is(err, fs.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	page, err := s.render(r.Context(), data, r.URL.Query().Get("theme"))
	if err != nil {
		s.assembly.logger.Error("assemble page", "page", name, "err", err)
		http.Error(w, ffserrors.UserMessage(err), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// render assembles one page. Each request gets its own document and
// preference so that the theme of one response never leaks into another.
func (s *pageServer) render(ctx context.Context, data []byte, themeName string) ([]byte, error) {
	doc, err := dom.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	a := s.assembly
	a.store = preference.NewMemoryStore()
	a.theme = themeName
	if _, err := a.assemble(ctx, doc); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func statusFor(err error) int {
	switch {
	case ffserrors.Is(err, ffserrors.ErrCodeInvalidTheme),
		ffserrors.Is(err, ffserrors.ErrCodeInvalidManifest):
		return http.StatusBadRequest
	case ffserrors.Is(err, ffserrors.ErrCodeResourceLoad),
		ffserrors.Is(err, ffserrors.ErrCodeThemeFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
