package router

import (
	"net/http"
	"strconv"

	"github.com/patric-chuzhbe/tracky/internal/models"
)

// GetApilogs lists logs of every category unless categoryId is given.
func (r *Router) GetApilogs(response http.ResponseWriter, request *http.Request) {
	var categoryID int64
	if raw := request.URL.Query().Get("categoryId"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			http.Error(response, "invalid categoryId", http.StatusBadRequest)
			return
		}
		categoryID = parsed
	}

	page, err := r.svc.ListLogs(request.Context(), sessionOf(request), categoryID, limitParam(request), request.URL.Query().Get("cursor"))
	if err != nil {
		writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusOK, page)
}

func (r *Router) PostApilogs(response http.ResponseWriter, request *http.Request) {
	var body models.LogRequest
	if !decode(response, request, &body) {
		return
	}

	l, err := r.svc.CreateLog(request.Context(), sessionOf(request), body)
	if err != nil {
		writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusCreated, l)
}
