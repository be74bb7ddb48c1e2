package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gsp-water/backend/handlers"
	"github.com/gsp-water/backend/middleware"
	"github.com/gsp-water/backend/models"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// =====================================================
	// Public Routes (no authentication)
	// =====================================================
	r.HandleFunc("/register", handlers.Register).Methods("POST")
	r.HandleFunc("/login", handlers.Login).Methods("POST")

	// =====================================================
	// Protected API Routes (require JWT authentication)
	// =====================================================
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.JWTMiddleware)
	api.Use(middleware.ScopeMiddleware)

	// Account endpoints
	api.HandleFunc("/profile", handlers.Profile).Methods("GET")
	api.HandleFunc("/profile", handlers.UpdateProfile).Methods("PUT")
	api.HandleFunc("/profile/password", handlers.ChangePassword).Methods("PUT")
	api.HandleFunc("/profile/logins", handlers.LoginHistory).Methods("GET")

	registerHierarchyRoutes(api)
	registerReadingRoutes(api)
	registerPlanningRoutes(api)
	registerMachineRoutes(api)

	// =====================================================
	// Admin Routes (require superuser)
	// =====================================================
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireSuperuser)
	registerAdminRoutes(admin)

	return r
}

// registerHierarchyRoutes wires regions, systems and facilities
func registerHierarchyRoutes(api *mux.Router) {
	// Regions: reads for everyone, writes for superusers.
	api.HandleFunc("/regions", handlers.GetAllRegions).Methods("GET")
	api.HandleFunc("/regions/{id}", handlers.GetRegion).Methods("GET")
	api.Handle("/regions", middleware.RequireSuperuser(
		http.HandlerFunc(handlers.CreateRegion))).Methods("POST")
	api.Handle("/regions/{id}", middleware.RequireSuperuser(
		http.HandlerFunc(handlers.UpdateRegion))).Methods("PUT")
	api.Handle("/regions/{id}", middleware.RequireSuperuser(
		http.HandlerFunc(handlers.DeleteRegion))).Methods("DELETE")

	// Systems: listing is scope-narrowed, creation is a superuser call.
	api.HandleFunc("/systems", handlers.GetAllSystems).Methods("GET")
	api.Handle("/systems", middleware.RequireSuperuser(
		http.HandlerFunc(handlers.CreateSystem))).Methods("POST")
	api.HandleFunc("/systems/{id}", handlers.GetSystem).Methods("GET")
	api.HandleFunc("/systems/{id}", handlers.UpdateSystem).Methods("PUT")
	api.HandleFunc("/systems/{id}", handlers.DeleteSystem).Methods("DELETE")
	api.HandleFunc("/systems/{id}/stats", handlers.GetSystemStats).Methods("GET")
	api.HandleFunc("/systems/{id}/monthly-usage", handlers.GetMonthlyUsage).Methods("GET")
	api.HandleFunc("/systems/{id}/compare", handlers.CompareConsumptions).Methods("GET")

	registerCRUDRoutes(api, "/reservoirs", crudHandlers{
		getAll: handlers.GetAllReservoirs,
		create: handlers.CreateReservoir,
		getOne: handlers.GetReservoir,
		update: handlers.UpdateReservoir,
		delete: handlers.DeleteReservoir,
	})
	api.HandleFunc("/reservoirs/{id}/compute-volume", handlers.ComputeReservoirVolume).Methods("GET")
	api.HandleFunc("/reservoirs/{id}/levels", handlers.GetReservoirLevels).Methods("GET")
	api.HandleFunc("/reservoirs/{id}/levels", handlers.AddReservoirLevel).Methods("POST")
	api.HandleFunc("/reservoirs/{id}/volumes/latest", handlers.GetLatestReservoirVolume).Methods("GET")
	api.HandleFunc("/reservoirs/{id}/volumes/stats", handlers.GetReservoirVolumeStats).Methods("GET")

	registerCRUDRoutes(api, "/canals", crudHandlers{
		getAll: handlers.GetAllCanals,
		create: handlers.CreateCanal,
		getOne: handlers.GetCanal,
		update: handlers.UpdateCanal,
		delete: handlers.DeleteCanal,
	})
	api.HandleFunc("/canals/{id}/compute-volume", handlers.ComputeCanalVolume).Methods("GET")
	api.HandleFunc("/canals/{id}/levels", handlers.GetCanalLevels).Methods("GET")
	api.HandleFunc("/canals/{id}/levels", handlers.AddCanalLevel).Methods("POST")
	api.HandleFunc("/canals/{id}/recent-intakes", handlers.GetCanalRecentIntakes).Methods("GET")

	api.HandleFunc("/dashboard", handlers.GetDashboard).Methods("GET")
}

// registerReadingRoutes wires daily intake and stock records
func registerReadingRoutes(api *mux.Router) {
	registerCRUDRoutes(api, "/intakes", crudHandlers{
		getAll: handlers.GetAllIntakes,
		create: handlers.CreateIntake,
		getOne: handlers.GetIntake,
		update: handlers.UpdateIntake,
		delete: handlers.DeleteIntake,
	})
	api.HandleFunc("/intakes-summary", handlers.GetIntakeSummary).Methods("GET")

	registerCRUDRoutes(api, "/reservoir-volumes", crudHandlers{
		getAll: handlers.GetAllReservoirVolumes,
		create: handlers.CreateReservoirVolume,
		getOne: handlers.GetReservoirVolume,
		update: handlers.UpdateReservoirVolume,
		delete: handlers.DeleteReservoirVolume,
	})
}

// registerPlanningRoutes wires crops and yearly consumption plans
func registerPlanningRoutes(api *mux.Router) {
	// Crop categories are shared reference data; writes need a manager
	// grant somewhere. Crops belong to a system and are row-checked in
	// their handlers.
	manages := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAnyGrant(models.RoleManager, h)
	}

	api.HandleFunc("/crop-categories", handlers.GetAllCropCategories).Methods("GET")
	api.Handle("/crop-categories", manages(handlers.CreateCropCategory)).Methods("POST")
	api.Handle("/crop-categories/{id}", manages(handlers.UpdateCropCategory)).Methods("PUT")
	api.Handle("/crop-categories/{id}", manages(handlers.DeleteCropCategory)).Methods("DELETE")

	registerCRUDRoutes(api, "/crops", crudHandlers{
		getAll: handlers.GetAllCrops,
		create: handlers.CreateCrop,
		getOne: handlers.GetCrop,
		update: handlers.UpdateCrop,
		delete: handlers.DeleteCrop,
	})

	registerCRUDRoutes(api, "/consumptions", crudHandlers{
		getAll: handlers.GetAllConsumptions,
		create: handlers.CreateConsumption,
		getOne: handlers.GetConsumption,
		update: handlers.UpdateConsumption,
		delete: handlers.DeleteConsumption,
	})
	api.HandleFunc("/consumptions/{id}/crops", handlers.ReplaceCropDetails).Methods("PUT")
	api.HandleFunc("/consumptions/{id}/summary", handlers.GetConsumptionSummary).Methods("GET")

	api.HandleFunc("/export/plan", handlers.ExportPlan).Methods("POST")
}

// registerMachineRoutes wires the machine fleet
func registerMachineRoutes(api *mux.Router) {
	registerCRUDRoutes(api, "/machines", crudHandlers{
		getAll: handlers.GetAllMachines,
		create: handlers.CreateMachine,
		getOne: handlers.GetMachine,
		update: handlers.UpdateMachine,
		delete: handlers.DeleteMachine,
	})
	api.HandleFunc("/machines-map", handlers.GetMachineMap).Methods("GET")
	api.HandleFunc("/machines/{id}/positions", handlers.GetMachinePositions).Methods("GET")
	api.HandleFunc("/machine-positions/bulk", handlers.BatchPositions).Methods("POST")

	api.HandleFunc("/machine-jobs", handlers.GetAllJobs).Methods("GET")
	api.HandleFunc("/machine-jobs", handlers.CreateJob).Methods("POST")
	api.HandleFunc("/machine-jobs/{id}/start", handlers.StartJob).Methods("POST")
	api.HandleFunc("/machine-jobs/{id}/complete", handlers.CompleteJob).Methods("POST")
	api.HandleFunc("/machine-jobs/{id}/cancel", handlers.CancelJob).Methods("POST")
}

// registerAdminRoutes wires account, grant and import management
func registerAdminRoutes(admin *mux.Router) {
	admin.HandleFunc("/users", handlers.GetAllUsers).Methods("GET")
	admin.HandleFunc("/users", handlers.CreateUser).Methods("POST")
	admin.HandleFunc("/users/{id}", handlers.UpdateUser).Methods("PUT")
	admin.HandleFunc("/users/{id}", handlers.DeactivateUser).Methods("DELETE")
	admin.HandleFunc("/users/{id}/grants", handlers.GetUserGrants).Methods("GET")
	admin.HandleFunc("/users/{id}/grants", handlers.UpsertGrant).Methods("POST")
	admin.HandleFunc("/users/{id}/grants/{grantId}", handlers.RevokeGrant).Methods("DELETE")
	admin.HandleFunc("/login-records", handlers.GetLoginRecords).Methods("GET")
	admin.HandleFunc("/import/levels", handlers.ImportLevels).Methods("POST")
}

// crudHandlers holds handlers for a CRUD resource
type crudHandlers struct {
	getAll func(http.ResponseWriter, *http.Request)
	create func(http.ResponseWriter, *http.Request)
	getOne func(http.ResponseWriter, *http.Request)
	update func(http.ResponseWriter, *http.Request)
	delete func(http.ResponseWriter, *http.Request)
}

// registerCRUDRoutes registers standard CRUD routes for a resource. Row-level
// authorization happens inside the handlers, against the caller's scope.
func registerCRUDRoutes(router *mux.Router, path string, h crudHandlers) {
	router.HandleFunc(path, h.getAll).Methods("GET")
	router.HandleFunc(path, h.create).Methods("POST")
	router.HandleFunc(path+"/{id}", h.getOne).Methods("GET")
	router.HandleFunc(path+"/{id}", h.update).Methods("PUT")
	router.HandleFunc(path+"/{id}", h.delete).Methods("DELETE")
}
