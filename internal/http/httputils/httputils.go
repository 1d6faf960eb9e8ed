package httputils

import (
	"encoding/json"
	"net/http"
)

// MIME: https://developer.mozilla.org/en-US/docs/Web/HTTP/Guides/MIME_types/Common_types

const (
	HeaderContentType     = "Content-Type"
	HeaderContentEncoding = "Content-Encoding"
	HeaderAcceptEncoding  = "Accept-Encoding"
	HeaderContentLength   = "Content-Length"

	MIMEApplicationJSON = "application/json"
	MIMETextHTML        = "text/html"
	MIMETextPlain       = "text/plain"
	MIMEOctetStream     = "application/octet-stream"

	EncodingGzip = "gzip"
)

func WriteText(w http.ResponseWriter, status int, message string) {
	w.Header().Set(HeaderContentType, MIMETextPlain)
	w.WriteHeader(status)
	w.Write([]byte(message))
}

func WriteTextError(w http.ResponseWriter, status int, message string) {
	WriteText(w, status, message)
}

func WriteJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set(HeaderContentType, MIMEApplicationJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: message})
}
