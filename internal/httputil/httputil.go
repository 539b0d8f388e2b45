package httputil

import (
	"encoding/json"
	"net/http"
	"net/url"
)

func redirectWithParameter(rw http.ResponseWriter, r *http.Request, baseURL, name, value string) {
	u, err := url.Parse(baseURL)
	if err != nil {
		panic(err)
	}

	q := u.Query()
	q.Set(name, value)
	u.RawQuery = q.Encode()

	http.Redirect(rw, r, u.String(), http.StatusFound)
}

func RedirectWithError(rw http.ResponseWriter, r *http.Request, baseURL, message string) {
	redirectWithParameter(rw, r, baseURL, "error", message)
}

func RedirectWithSuccess(rw http.ResponseWriter, r *http.Request, baseURL, message string) {
	redirectWithParameter(rw, r, baseURL, "success", message)
}

func RedirectWithInformation(rw http.ResponseWriter, r *http.Request, baseURL, message string) {
	redirectWithParameter(rw, r, baseURL, "information", message)
}

func NotFound(rw http.ResponseWriter, r *http.Request) {
	http.Error(rw, "Not found", http.StatusNotFound)
}

type jsonEnvelope struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(rw http.ResponseWriter, status int, envelope jsonEnvelope) {
	rw.Header().Set("content-type", "application/json; charset=utf-8")
	rw.WriteHeader(status)

	if err := json.NewEncoder(rw).Encode(envelope); err != nil {
		panic(err)
	}
}

func JSONOK(rw http.ResponseWriter, message string, data interface{}) {
	writeJSON(rw, http.StatusOK, jsonEnvelope{Message: message, Data: data})
}

func JSONCreated(rw http.ResponseWriter, message string, data interface{}) {
	writeJSON(rw, http.StatusCreated, jsonEnvelope{Message: message, Data: data})
}

func JSONBadRequest(rw http.ResponseWriter, message string) {
	writeJSON(rw, http.StatusBadRequest, jsonEnvelope{Message: message, Error: message})
}

func JSONNotFound(rw http.ResponseWriter, message string) {
	writeJSON(rw, http.StatusNotFound, jsonEnvelope{Message: message, Error: message})
}

func JSONInternalError(rw http.ResponseWriter, message string) {
	writeJSON(rw, http.StatusInternalServerError, jsonEnvelope{Message: message, Error: message})
}
