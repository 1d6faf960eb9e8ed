package getdefault

import (
	"net/http"

	"tmpbin/internal/http/httputils"
)

// HandlerGetDefault answers the bare root with a greeting, which doubles as
// a liveness probe for humans.
func HandlerGetDefault() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputils.WriteText(w, http.StatusOK, "hello, tmpbin!\n")
	}
}
