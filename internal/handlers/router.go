package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/xelth-com/facilitymap/internal/buildinfo"
	"github.com/xelth-com/facilitymap/internal/layout"
	"github.com/xelth-com/facilitymap/internal/middleware"
	"github.com/xelth-com/facilitymap/internal/store"
	"github.com/xelth-com/facilitymap/internal/websocket"
	"go.uber.org/zap"
)

// Deps are the collaborators the HTTP layer needs
type Deps struct {
	Service       *layout.Service
	Store         store.Store
	Hub           *websocket.Hub // nil disables the change feed
	JWTSecret     string
	PublicBaseURL string
	Log           *zap.Logger
}

// Router wraps the mux router and the layout service
type Router struct {
	*mux.Router
	svc     *layout.Service
	store   store.Store
	hub     *websocket.Hub
	auth    *middleware.Authenticator
	secret  string
	baseURL string
	log     *zap.Logger
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(d Deps) *Router {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	r := &Router{
		Router:  mux.NewRouter(),
		svc:     d.Service,
		store:   d.Store,
		hub:     d.Hub,
		auth:    middleware.NewAuthenticator(d.JWTSecret),
		secret:  d.JWTSecret,
		baseURL: d.PublicBaseURL,
		log:     log,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")
	r.HandleFunc("/api/status", r.getStatus).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.login).Methods("POST")
	auth.HandleFunc("/register", r.register).Methods("POST")
	auth.HandleFunc("/refresh", r.refresh).Methods("POST")

	// QR asset labels land here
	r.HandleFunc("/e/{id}", r.labelRedirect).Methods("GET")

	// Live change feed
	r.Handle("/ws/floorplans/{id}", r.auth.Authenticate(http.HandlerFunc(r.serveWs))).Methods("GET")

	// API routes (authenticated; writes need the admin role)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(r.auth.Authenticate)
	admin := func(h http.HandlerFunc) http.Handler { return middleware.RequirePrivileged(h) }

	api.HandleFunc("/substations", r.listSubstations).Methods("GET")
	api.Handle("/substations", admin(r.createSubstation)).Methods("POST")
	api.HandleFunc("/substations/{id}", r.getSubstation).Methods("GET")
	api.Handle("/substations/{id}", admin(r.updateSubstation)).Methods("PUT")
	api.Handle("/substations/{id}", admin(r.deleteSubstation)).Methods("DELETE")
	api.HandleFunc("/substations/{id}/floors", r.listFloors).Methods("GET")
	api.Handle("/substations/{id}/floors", admin(r.createFloor)).Methods("POST")

	api.HandleFunc("/floors/{id}", r.getFloor).Methods("GET")
	api.Handle("/floors/{id}", admin(r.updateFloor)).Methods("PUT")
	api.Handle("/floors/{id}", admin(r.deleteFloor)).Methods("DELETE")
	api.HandleFunc("/floors/{id}/floorplan", r.getFloorPlan).Methods("GET")
	api.Handle("/floors/{id}/floorplan", admin(r.createFloorPlan)).Methods("POST")

	api.HandleFunc("/floorplans/{id}", r.getFloorPlanByID).Methods("GET")
	api.Handle("/floorplans/{id}", admin(r.deleteFloorPlan)).Methods("DELETE")
	api.Handle("/floorplans/{id}/bulk", admin(r.bulkUpdate)).Methods("PUT")
	api.Handle("/floorplans/{id}/elements", admin(r.createElement)).Methods("POST")
	api.HandleFunc("/floorplans/{id}/inventory.xlsx", r.inventory).Methods("GET")
	api.Handle("/elements/{id}", admin(r.updateElement)).Methods("PUT")
	api.Handle("/elements/{id}", admin(r.deleteElement)).Methods("DELETE")

	api.HandleFunc("/racks/{id}/equipment", r.listEquipment).Methods("GET")
	api.Handle("/racks/{id}/equipment", admin(r.createEquipment)).Methods("POST")
	api.HandleFunc("/racks/{id}/elevation.pdf", r.rackElevation).Methods("GET")
	api.HandleFunc("/racks/{id}/labels.pdf", r.rackLabels).Methods("GET")

	api.HandleFunc("/equipment/{id}", r.getEquipment).Methods("GET")
	api.Handle("/equipment/{id}", admin(r.updateEquipment)).Methods("PUT")
	api.Handle("/equipment/{id}", admin(r.deleteEquipment)).Methods("DELETE")
	api.Handle("/equipment/{id}/move", admin(r.moveEquipment)).Methods("PATCH")
	api.HandleFunc("/equipment/{id}/label.pdf", r.equipmentLabel).Methods("GET")
	api.HandleFunc("/equipment/{id}/ports", r.listPorts).Methods("GET")
	api.Handle("/equipment/{id}/ports", admin(r.createPort)).Methods("POST")

	api.Handle("/ports/{id}", admin(r.updatePort)).Methods("PUT")
	api.Handle("/ports/{id}", admin(r.deletePort)).Methods("DELETE")

	return r
}

// Handler returns the router wrapped in the request-level middleware chain
func (r *Router) Handler() http.Handler {
	return middleware.RequestLogger(r.log)(middleware.CaseInsensitiveMiddleware(r))
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getStatus returns build and runtime information
func (r *Router) getStatus(w http.ResponseWriter, req *http.Request) {
	status := map[string]interface{}{
		"status": "running",
		"build":  buildinfo.Info(),
	}
	respondData(w, http.StatusOK, status)
}

func actorID(req *http.Request) string {
	a, _ := middleware.ActorFrom(req.Context())
	return a.ID
}

func pathID(req *http.Request) string { return mux.Vars(req)["id"] }
