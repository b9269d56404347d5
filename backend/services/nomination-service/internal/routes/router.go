package routes

import (
	"net/http"
	"strings"

	"github.com/Arshie13/FAPRNA-sub000/backend/services/nomination-service/internal/controllers"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-middleware"
	"github.com/gorilla/mux"
)

// Controllers groups everything NewRouter mounts.
type Controllers struct {
	Health       *controllers.HealthController
	Nomination   *controllers.NominationController
	Admin        *controllers.AdminNominationController
	Settings     *controllers.SettingsController
	Verification *controllers.VerificationController
}

// NewRouter mounts every endpoint. metricsHandler may be nil.
func NewRouter(c Controllers, metricsHandler http.Handler) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RecoverMiddleware, middleware.RequestLoggerMiddleware)

	// Health & ops
	router.HandleFunc(Health, c.Health.HealthCheckHandler).Methods("GET")
	if metricsHandler != nil {
		router.Handle(Metrics, metricsHandler).Methods("GET")
	}

	// Public
	router.HandleFunc(NominationsBase, c.Nomination.CreateNomination).Methods("POST")
	router.HandleFunc(NominationSettings, c.Settings.GetSettings).Methods("GET")
	router.HandleFunc(VerificationSend, c.Verification.SendCode).Methods("POST")
	router.HandleFunc(VerificationVerify, c.Verification.VerifyCode).Methods("POST")

	// Admin. /stats is registered before /{id} so it is not taken for an id.
	admin := router.PathPrefix(AdminBase).Subrouter()
	admin.HandleFunc(adminPath(AdminNominations), c.Admin.ListNominations).Methods("GET")
	admin.HandleFunc(adminPath(AdminNominationStats), c.Admin.GetStats).Methods("GET")
	admin.HandleFunc(adminPath(AdminNominationByID), c.Admin.GetNomination).Methods("GET")
	admin.HandleFunc(adminPath(AdminNominationStatus), c.Admin.UpdateStatus).Methods("PATCH")
	admin.HandleFunc(adminPath(AdminNominationSettings), c.Settings.ListYears).Methods("GET")
	admin.HandleFunc(adminPath(AdminNominationSettings), c.Settings.CreateYear).Methods("POST")
	admin.HandleFunc(adminPath(AdminNominationSettingsToggle), c.Settings.Toggle).Methods("POST")
	admin.HandleFunc(adminPath(AdminEligibleMembers), c.Admin.ListEligibleMembers).Methods("GET")

	return router
}

func adminPath(full string) string {
	return strings.TrimPrefix(full, AdminBase)
}
