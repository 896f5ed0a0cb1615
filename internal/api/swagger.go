package api

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

const specPath = "/swagger/doc.json"

// SwaggerUIHandler serves Swagger UI backed by the registered spec.
func SwaggerUIHandler() http.HandlerFunc {
	return httpSwagger.Handler(
		httpSwagger.URL(specPath),
		httpSwagger.DocExpansion("list"),
	)
}

// OpenAPISpecHandler redirects to the spec JSON.
func OpenAPISpecHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, specPath, http.StatusTemporaryRedirect)
	}
}
