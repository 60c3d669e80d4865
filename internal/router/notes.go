package router

import (
	"net/http"

	"github.com/patric-chuzhbe/tracky/internal/models"
)

func (r *Router) GetApinotes(response http.ResponseWriter, request *http.Request) {
	page, err := r.svc.ListNotes(request.Context(), sessionOf(request), limitParam(request), request.URL.Query().Get("cursor"))
	if err != nil {
		writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusOK, page)
}

func (r *Router) PostApinotes(response http.ResponseWriter, request *http.Request) {
	var body models.NoteRequest
	if !decode(response, request, &body) {
		return
	}

	n, err := r.svc.CreateNote(request.Context(), sessionOf(request), body)
	if err != nil {
		writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusCreated, n)
}

// GetApinotesid answers null when the caller has no such note.
func (r *Router) GetApinotesid(response http.ResponseWriter, request *http.Request) {
	id, ok := idParam(response, request)
	if !ok {
		return
	}

	n, err := r.svc.GetNote(request.Context(), sessionOf(request), id)
	if err != nil {
		writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusOK, n)
}

func (r *Router) PutApinotesid(response http.ResponseWriter, request *http.Request) {
	id, ok := idParam(response, request)
	if !ok {
		return
	}
	var body models.NoteRequest
	if !decode(response, request, &body) {
		return
	}

	n, err := r.svc.UpdateNote(request.Context(), sessionOf(request), id, body)
	if err != nil {
		writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusOK, n)
}

func (r *Router) DeleteApinotesid(response http.ResponseWriter, request *http.Request) {
	id, ok := idParam(response, request)
	if !ok {
		return
	}

	deleted, err := r.svc.DeleteNote(request.Context(), sessionOf(request), id)
	if err != nil {
		writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusOK, models.BoolResponse{Result: deleted})
}
