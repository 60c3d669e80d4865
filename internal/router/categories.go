package router

import (
	"net/http"

	"github.com/patric-chuzhbe/tracky/internal/models"
)

func (r *Router) GetApicategories(response http.ResponseWriter, request *http.Request) {
	list, err := r.svc.ListCategories(request.Context(), sessionOf(request))
	if err != nil {
		writeError(response, request, err)
		return
	}
	if list == nil {
		list = []models.Category{}
	}

	writeJSON(response, http.StatusOK, list)
}

func (r *Router) PostApicategories(response http.ResponseWriter, request *http.Request) {
	var body models.CategoryRequest
	if !decode(response, request, &body) {
		return
	}

	c, err := r.svc.CreateCategory(request.Context(), sessionOf(request), body)
	if err != nil {
		writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusCreated, c)
}

func (r *Router) DeleteApicategoriesid(response http.ResponseWriter, request *http.Request) {
	id, ok := idParam(response, request)
	if !ok {
		return
	}

	deleted, err := r.svc.DeleteCategory(request.Context(), sessionOf(request), id)
	if err != nil {
		writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusOK, models.BoolResponse{Result: deleted})
}
