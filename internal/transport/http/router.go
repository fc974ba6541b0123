package http

import (
	"github.com/gorilla/mux"
)

// NewRouter configures HTTP routes. Conversion and downloads are served
// both at the root and under /api.
func NewRouter(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	for _, prefix := range []string{"", "/api"} {
		r.HandleFunc(prefix+"/convert", handler.Convert).Methods("POST")
		r.HandleFunc(prefix+"/files/{filename}", handler.DownloadFile).Methods("GET")
	}
	r.HandleFunc("/api/users/register", handler.Register).Methods("POST")
	return r
}
