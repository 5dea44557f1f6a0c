package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/pharmetrix/careplan-service/internal/order"
)

// SetupRouter initializes all routes for the application
func SetupRouter(orderHandler *order.Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("careplan-service"))

	// Public health endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"careplan-service"}`))
	}).Methods("GET")

	// Intake: one endpoint per partner source format
	r.HandleFunc("/intake/{source}", orderHandler.SubmitOrder).Methods("POST")

	// Order lifecycle
	r.HandleFunc("/orders", orderHandler.ListOrders).Methods("GET")
	r.HandleFunc("/orders/{id}", orderHandler.GetOrder).Methods("GET")
	r.HandleFunc("/orders/{id}/reset", orderHandler.ResetOrder).Methods("POST")

	// Generated care plans
	r.HandleFunc("/orders/{id}/careplan", orderHandler.GetCarePlan).Methods("GET")
	r.HandleFunc("/orders/{id}/careplan/download", orderHandler.DownloadCarePlan).Methods("GET")

	return r
}
