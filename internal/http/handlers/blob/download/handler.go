package download

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"tmpbin/internal/domain/models"
	"tmpbin/internal/http/httputils"

	"github.com/gorilla/mux"
)

type BlobService interface {
	Get(ctx context.Context, code string) (models.Entry, error)
}

// HandlerDownload serves the stored payload. A payload that is a single
// bare http(s) URL answers with a temporary redirect instead, so a stored
// link behaves like a short link.
func HandlerDownload(svc BlobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		code := mux.Vars(r)["code"]

		entry, err := svc.Get(ctx, code)
		if err != nil {
			writeGetError(w, err)
			return
		}

		if target, ok := redirectTarget(entry.Payload); ok {
			http.Redirect(w, r, target, http.StatusTemporaryRedirect)
			return
		}

		w.Header().Set(httputils.HeaderContentType, http.DetectContentType(entry.Payload))
		w.Write(entry.Payload)
	}
}

func redirectTarget(payload []byte) (string, bool) {
	if !bytes.HasPrefix(payload, []byte("http")) {
		return "", false
	}
	if bytes.ContainsAny(payload, " \n") {
		return "", false
	}
	return string(payload), true
}

func writeGetError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		httputils.WriteTextError(w, http.StatusNotFound, models.ErrNotFound.Error())
	case errors.Is(err, models.ErrInvalidData):
		httputils.WriteTextError(w, http.StatusBadRequest, models.ErrInvalidData.Error())
	default:
		httputils.WriteTextError(w, http.StatusInternalServerError, models.ErrStorage.Error())
	}
}
