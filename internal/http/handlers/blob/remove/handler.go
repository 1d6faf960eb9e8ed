package remove

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"tmpbin/internal/domain/models"
	"tmpbin/internal/http/httputils"

	"github.com/gorilla/mux"
)

type BlobService interface {
	Delete(ctx context.Context, code string, secret string) error
}

// HandlerRemove deletes an entry. The request body carries the secret
// issued at upload time.
func HandlerRemove(svc BlobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		code := mux.Vars(r)["code"]

		body, err := io.ReadAll(r.Body)
		if err != nil {
			httputils.WriteTextError(w, http.StatusBadRequest, models.ErrInvalidData.Error())
			return
		}
		defer r.Body.Close()

		secret := strings.TrimSpace(string(body))

		if err := svc.Delete(ctx, code, secret); err != nil {
			writeDeleteError(w, err)
			return
		}

		httputils.WriteText(w, http.StatusOK, fmt.Sprintf("entry %s deleted\n", code))
	}
}

func writeDeleteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		httputils.WriteTextError(w, http.StatusUnauthorized, models.ErrUnauthorized.Error())
	case errors.Is(err, models.ErrForbidden):
		httputils.WriteTextError(w, http.StatusForbidden, models.ErrForbidden.Error())
	case errors.Is(err, models.ErrNotFound):
		httputils.WriteTextError(w, http.StatusNotFound, models.ErrNotFound.Error())
	case errors.Is(err, models.ErrInvalidData):
		httputils.WriteTextError(w, http.StatusBadRequest, models.ErrInvalidData.Error())
	default:
		httputils.WriteTextError(w, http.StatusInternalServerError, models.ErrStorage.Error())
	}
}
