package api

import (
	"compress/gzip"
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// StaticConfig controls how the generated site is served.
type StaticConfig struct {
	Root     string
	Compress bool
	// MinSize is the smallest response body that gets compressed.
	MinSize int
}

// StaticHandler serves the generated site from disk, gzip-compressed when
// enabled. Pages are never cached by the browser so rebuilds show up on
// reload.
func StaticHandler(cfg StaticConfig) http.Handler {
	var h http.Handler = http.FileServer(http.Dir(cfg.Root))
	h = noCache(h)
	if !cfg.Compress {
		return h
	}
	wrap, err := gzhttp.NewWrapper(
		gzhttp.MinSize(cfg.MinSize),
		gzhttp.CompressionLevel(gzip.DefaultCompression),
	)
	if err != nil {
		return h
	}
	return wrap(h)
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		next.ServeHTTP(w, r)
	})
}
