package middleware

import (
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

func isNoBodyStatus(code int) bool {
	// 204 No Content, 304 Not Modified, 1xx Informational
	return (code >= 100 && code < 200) || code == http.StatusNoContent || code == http.StatusNotModified
}

// CompressConfig
type CompressConfig struct {
	GzipLevel int
	ZstdLevel zstd.EncoderLevel
	// SkipPrefixes 內的路徑不壓縮（例如 /metrics 由 promhttp 自行協商）。
	SkipPrefixes []string
}

var DefaultCompressConfig = CompressConfig{
	GzipLevel:    gzip.DefaultCompression,
	ZstdLevel:    zstd.SpeedFastest,
	SkipPrefixes: []string{"/metrics"},
}

// encoder 是 gzip.Writer 與 zstd.Encoder 的共同介面。
type encoder interface {
	io.Writer
	Reset(w io.Writer)
	Close() error
}

type codec struct {
	name string
	pool sync.Pool
}

func newCodecs(cfg CompressConfig) (zc, gc *codec) {
	zc = &codec{name: "zstd"}
	zc.pool.New = func() any {
		zw, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(cfg.ZstdLevel),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			panic(err)
		}
		return zw
	}
	gc = &codec{name: "gzip"}
	gc.pool.New = func() any {
		gw, err := gzip.NewWriterLevel(nil, cfg.GzipLevel)
		if err != nil {
			gw = gzip.NewWriter(nil)
		}
		return gw
	}
	return zc, gc
}

func (c *codec) get(w io.Writer) encoder {
	enc := c.pool.Get().(encoder)
	enc.Reset(w)
	return enc
}

func (c *codec) put(enc encoder, discard bool) {
	// 204/304 時把 footer 丟進 io.Discard，不污染回應
	if discard {
		enc.Reset(io.Discard)
	}
	_ = enc.Close()
	c.pool.Put(enc)
}

type compressResponseWriter struct {
	http.ResponseWriter
	w        io.Writer // 指向 gzip.Writer 或 zstd.Encoder
	disabled bool      // 標記是否動態取消壓縮
}

func (cw *compressResponseWriter) Write(b []byte) (int, error) {
	if cw.disabled {
		return cw.ResponseWriter.Write(b)
	}
	cw.Header().Del("Content-Length")
	if cw.Header().Get("Content-Type") == "" {
		cw.Header().Set("Content-Type", http.DetectContentType(b))
	}
	return cw.w.Write(b)
}

func (cw *compressResponseWriter) WriteHeader(code int) {
	cw.Header().Del("Content-Length")
	if isNoBodyStatus(code) {
		cw.disabled = true
		cw.Header().Del("Content-Encoding")
		cw.Header().Del("Vary")
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *compressResponseWriter) Flush() {
	if !cw.disabled {
		if f, ok := cw.w.(interface{ Flush() error }); ok {
			_ = f.Flush()
		}
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Compression 依 Accept-Encoding 選 zstd 或 gzip；encoder 以 sync.Pool 重用。
func Compression(next http.Handler) http.Handler {
	return CompressionWith(DefaultCompressConfig)(next)
}

func CompressionWith(cfg CompressConfig) func(http.Handler) http.Handler {
	zc, gc := newCodecs(cfg)
	skip := func(path string) bool {
		for _, p := range cfg.SkipPrefixes {
			if strings.HasPrefix(path, p) {
				return true
			}
		}
		return false
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead || skip(r.URL.Path) || w.Header().Get("Content-Encoding") != "" {
				next.ServeHTTP(w, r)
				return
			}

			var c *codec
			switch encoding := r.Header.Get("Accept-Encoding"); {
			case strings.Contains(encoding, "zstd"):
				c = zc
			case strings.Contains(encoding, "gzip"):
				c = gc
			default:
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Content-Encoding", c.name)
			w.Header().Add("Vary", "Accept-Encoding")
			enc := c.get(w)
			cw := &compressResponseWriter{ResponseWriter: w, w: enc}
			defer func() { c.put(enc, cw.disabled) }()

			next.ServeHTTP(cw, r)
		})
	}
}
