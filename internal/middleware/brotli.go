package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// BrotliConfig tunes response compression.
type BrotliConfig struct {
	// Quality is the brotli level, 0 to 11.
	Quality int
	// MinLength is the smallest body worth compressing. Shorter bodies go out as is.
	MinLength int
	// Skipper bypasses compression for matching requests.
	Skipper func(c *gin.Context) bool
}

// DefaultBrotliConfig favours speed; attendance reports are JSON or CSV and
// compress well at low levels.
var DefaultBrotliConfig = BrotliConfig{
	Quality:   4,
	MinLength: 1024,
}

// brotliWriter holds back the body until it is known to be at least minLength,
// then either compresses or passes it through.
type brotliWriter struct {
	gin.ResponseWriter
	quality   int
	minLength int
	pending   []byte
	decided   bool
	encoder   *brotli.Writer
}

func (w *brotliWriter) Write(data []byte) (int, error) {
	if w.decided {
		if w.encoder != nil {
			return w.encoder.Write(data)
		}
		return w.ResponseWriter.Write(data)
	}

	w.pending = append(w.pending, data...)
	if len(w.pending) < w.minLength {
		return len(data), nil
	}
	if err := w.decide(true); err != nil {
		return 0, err
	}
	return len(data), nil
}

func (w *brotliWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Flush sends anything buffered so far. A body that has not reached minLength
// by the first flush is sent uncompressed.
func (w *brotliWriter) Flush() {
	if !w.decided {
		_ = w.decide(false)
	}
	if w.encoder != nil {
		_ = w.encoder.Flush()
	}
	w.ResponseWriter.Flush()
}

func (w *brotliWriter) decide(compress bool) error {
	w.decided = true
	if compress && bodyAllowed(w.Status()) {
		h := w.ResponseWriter.Header()
		h.Set("Content-Encoding", "br")
		h.Del("Content-Length")
		w.encoder = brotli.NewWriterLevel(w.ResponseWriter, w.quality)
		_, err := w.encoder.Write(w.pending)
		w.pending = nil
		return err
	}
	_, err := w.ResponseWriter.Write(w.pending)
	w.pending = nil
	return err
}

func (w *brotliWriter) finish() error {
	if !w.decided {
		if len(w.pending) == 0 {
			return nil
		}
		return w.decide(false)
	}
	if w.encoder != nil {
		return w.encoder.Close()
	}
	return nil
}

// Brotli compresses responses with DefaultBrotliConfig.
func Brotli() gin.HandlerFunc {
	return BrotliWithConfig(DefaultBrotliConfig)
}

// BrotliWithConfig compresses responses for clients that accept br.
func BrotliWithConfig(cfg BrotliConfig) gin.HandlerFunc {
	if cfg.Quality < brotli.BestSpeed || cfg.Quality > brotli.BestCompression {
		cfg.Quality = DefaultBrotliConfig.Quality
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultBrotliConfig.MinLength
	}

	return func(c *gin.Context) {
		if isUpgrade(c) || c.Request.Method == http.MethodHead || !acceptsBrotli(c.Request) {
			c.Next()
			return
		}
		if cfg.Skipper != nil && cfg.Skipper(c) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")
		w := &brotliWriter{
			ResponseWriter: c.Writer,
			quality:        cfg.Quality,
			minLength:      cfg.MinLength,
		}
		c.Writer = w
		defer func() {
			if err := w.finish(); err != nil {
				_ = c.Error(err)
			}
		}()
		c.Next()
	}
}

// isUpgrade reports WebSocket handshakes, which must reach the handler unwrapped.
func isUpgrade(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}

func bodyAllowed(status int) bool {
	return status != http.StatusNoContent && status != http.StatusNotModified && status >= http.StatusOK
}

func acceptsBrotli(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(enc), ";")
		if !strings.EqualFold(strings.TrimSpace(name), "br") {
			continue
		}
		if q, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			weight, err := strconv.ParseFloat(q, 64)
			return err == nil && weight > 0
		}
		return true
	}
	return false
}
