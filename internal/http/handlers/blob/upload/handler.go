package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"tmpbin/internal/domain/models"
	"tmpbin/internal/http/httputils"
)

// HeaderTTL carries an optional per-upload TTL in seconds.
const HeaderTTL = "X-TTL"

type BlobService interface {
	Create(ctx context.Context, payload []byte, ttl time.Duration) (models.Entry, error)
	EntryURL(code string) string
}

// HandlerUpload stores the raw request body and answers with the plain-text
// reference block:
//
//	url: <base>/<code>
//	short: <code>
//	size: <n> bytes
//	secret: <secret>
func HandlerUpload(svc BlobService, sizeLimit int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		body := r.Body
		if sizeLimit > 0 {
			body = http.MaxBytesReader(w, r.Body, sizeLimit)
		}
		payload, err := io.ReadAll(body)
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				httputils.WriteTextError(w, http.StatusRequestEntityTooLarge, models.ErrPayloadTooLarge.Error())
				return
			}
			httputils.WriteTextError(w, http.StatusBadRequest, models.ErrInvalidData.Error())
			return
		}
		defer r.Body.Close()

		entry, err := svc.Create(ctx, payload, parseTTL(r.Header.Get(HeaderTTL)))
		if err != nil {
			writeCreateError(w, err)
			return
		}

		w.Header().Set(httputils.HeaderContentType, httputils.MIMETextPlain)
		fmt.Fprintf(w, "url: %s\nshort: %s\nsize: %d bytes\nsecret: %s\n",
			svc.EntryURL(entry.Code), entry.Code, entry.Size, entry.Secret)
	}
}

// parseTTL converts the header value to a duration; absent or malformed
// values fall through to the service default.
func parseTTL(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func writeCreateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrPayloadTooLarge):
		httputils.WriteTextError(w, http.StatusRequestEntityTooLarge, models.ErrPayloadTooLarge.Error())
	case errors.Is(err, models.ErrInvalidData):
		httputils.WriteTextError(w, http.StatusBadRequest, models.ErrInvalidData.Error())
	case errors.Is(err, models.ErrCodeSpaceExhausted):
		httputils.WriteTextError(w, http.StatusInsufficientStorage, models.ErrCodeSpaceExhausted.Error())
	default:
		httputils.WriteTextError(w, http.StatusInternalServerError, models.ErrStorage.Error())
	}
}
