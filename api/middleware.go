package api

import (
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"hdb-resale/utils"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func requestLogging(logger *utils.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		logger.Info("[api] %s %s %d %.1fms", r.Method, r.URL.Path, wrapped.statusCode,
			float64(time.Since(start).Microseconds())/1000)
	})
}

// compression gzips responses of 1KB and more.
func compression(next http.Handler) http.Handler {
	wrapper, err := gzhttp.NewWrapper(gzhttp.MinSize(1024), gzhttp.CompressionLevel(6))
	if err != nil {
		return gzhttp.GzipHandler(next)
	}
	return wrapper(next)
}
