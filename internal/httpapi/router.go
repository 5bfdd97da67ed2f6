package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Krimson/heart-risk/docs"
)

// NewRouter собирает все маршруты HTTP-сервера. feed может быть nil.
func NewRouter(api *Handler, web *Web, feed http.HandlerFunc, allowedOrigin string) http.Handler {
	router := mux.NewRouter()

	api.RegisterRoutes(router)
	if feed != nil {
		router.HandleFunc("/ws/assessments", feed)
	}

	// Swagger UI
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	web.RegisterRoutes(router)

	return enableCORS(router, allowedOrigin)
}

// enableCORS middleware для CORS
func enableCORS(next http.Handler, allowedOrigin string) http.Handler {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
