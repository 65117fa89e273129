package middleware

import (
	"errors"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// DrainAndCloseRequest drains what the handler left of the request body and
// closes it. At most maxDrainBytes are read, bodies left with more than that
// (an oversized plan upload, say) are closed without reading them to the end.
func DrainAndCloseRequest(maxDrainBytes int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Body == nil {
				return
			}

			drained, err := io.CopyN(io.Discard, r.Body, maxDrainBytes+1)
			if drained > maxDrainBytes {
				log.Tracef("[request cleanup] %s: body exceeds %d unread bytes, not draining", r.URL.Path, maxDrainBytes)
			} else if err != nil && !errors.Is(err, io.EOF) {
				log.Tracef("[request cleanup] %s: drain body: %s", r.URL.Path, err)
			}
			_ = r.Body.Close()
		})
	}
}
