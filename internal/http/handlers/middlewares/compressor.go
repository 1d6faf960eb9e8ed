package middlewares

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"tmpbin/internal/http/httputils"
)

// MiddlewareCompressing transparently unpacks gzip request bodies and
// compresses responses for clients that accept gzip.
func MiddlewareCompressing() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := decompressRequest(r); err != nil {
				http.Error(w, "invalid gzip data", http.StatusBadRequest)
				return
			}

			if acceptsGzip(r) {
				compressResponse(w, r, next)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func decompressRequest(r *http.Request) error {
	if !strings.Contains(r.Header.Get(httputils.HeaderContentEncoding), httputils.EncodingGzip) {
		return nil
	}

	gz, err := gzip.NewReader(r.Body)
	if err != nil {
		return err
	}
	r.Body = gz
	r.Header.Del(httputils.HeaderContentEncoding)
	r.Header.Del(httputils.HeaderContentLength)
	return nil
}

func acceptsGzip(r *http.Request) bool {
	return strings.Contains(r.Header.Get(httputils.HeaderAcceptEncoding), httputils.EncodingGzip)
}

func compressResponse(w http.ResponseWriter, r *http.Request, next http.Handler) {
	gz := gzip.NewWriter(w)
	defer gz.Close()

	w.Header().Set(httputils.HeaderContentEncoding, httputils.EncodingGzip)
	w.Header().Del(httputils.HeaderContentLength)

	next.ServeHTTP(&gzipResponseWriter{ResponseWriter: w, Writer: gz}, r)
}

// gzipResponseWriter is a minimal wrapper routing writes through gzip.
type gzipResponseWriter struct {
	http.ResponseWriter
	io.Writer
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}
