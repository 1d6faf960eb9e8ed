package getping

import (
	"context"
	"net/http"

	"tmpbin/internal/http/httputils"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

func HandlerPing(svc Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Ping(r.Context()); err != nil {
			httputils.WriteTextError(w, http.StatusInternalServerError, err.Error())
			return
		}
		httputils.WriteText(w, http.StatusOK, "pong")
	}
}
