package router

import (
	"net/http"

	"github.com/patric-chuzhbe/tracky/internal/models"
	"github.com/patric-chuzhbe/tracky/internal/privacy"
)

func (r *Router) PostApiusersregister(response http.ResponseWriter, request *http.Request) {
	var body models.RegisterRequest
	if !decode(response, request, &body) {
		return
	}

	res, err := r.svc.Register(request.Context(), sessionOf(request), body)
	if err != nil {
		writeError(response, request, err)
		return
	}

	writeUserResult(response, request, res)
}

func (r *Router) PostApiuserslogin(response http.ResponseWriter, request *http.Request) {
	var body models.LoginRequest
	if !decode(response, request, &body) {
		return
	}

	res, err := r.svc.Login(request.Context(), sessionOf(request), body)
	if err != nil {
		writeError(response, request, err)
		return
	}

	writeUserResult(response, request, res)
}

func (r *Router) PostApiuserslogout(response http.ResponseWriter, request *http.Request) {
	writeJSON(response, http.StatusOK, models.BoolResponse{Result: r.svc.Logout(request.Context(), sessionOf(request))})
}

func (r *Router) PostApiusersforgotpassword(response http.ResponseWriter, request *http.Request) {
	var body models.ForgotPasswordRequest
	if !decode(response, request, &body) {
		return
	}

	ok, err := r.svc.ForgotPassword(request.Context(), body.Email)
	if err != nil {
		writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusOK, models.BoolResponse{Result: ok})
}

func (r *Router) PostApiuserschangepassword(response http.ResponseWriter, request *http.Request) {
	var body models.ChangePasswordRequest
	if !decode(response, request, &body) {
		return
	}

	res, err := r.svc.ChangePassword(request.Context(), sessionOf(request), body)
	if err != nil {
		writeError(response, request, err)
		return
	}

	writeUserResult(response, request, res)
}

// GetApiusersme answers null for anonymous callers.
func (r *Router) GetApiusersme(response http.ResponseWriter, request *http.Request) {
	u, err := r.svc.Me(request.Context(), sessionOf(request))
	if err != nil {
		writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusOK, privacy.Project(u, caller(request)))
}
