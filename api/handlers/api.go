package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ecotrackhq/ecotrack-api/api"
	"github.com/ecotrackhq/ecotrack-api/api/scheduler"
	"github.com/ecotrackhq/ecotrack-api/config"
	"github.com/ecotrackhq/ecotrack-api/databases"
	"github.com/ecotrackhq/ecotrack-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Scheduler *scheduler.Scheduler
	dbHelper  databases.DatabaseHelper
	notifier  Notifier
	hub       *NotificationHub
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	if a.notifier == nil {
		a.notifier = NoopNotifier{}
	}

	rdb := databases.NewReportDatabase(a.dbHelper)
	udb := databases.NewUserDatabase(a.dbHelper)
	bdb := databases.NewWasteBinDatabase(a.dbHelper)
	sdb := databases.NewSettingsDatabase(a.dbHelper)

	mailer := NewVerdictMailer(a.Config.SendgridKey)
	var uploads *cloudinary.Cloudinary
	if a.Config.CloudinaryURL != "" {
		var err error
		uploads, err = cloudinary.NewFromURL(a.Config.CloudinaryURL)
		if err != nil {
			zap.S().Warnw("failed to initialize cloudinary, storing attachments inline", "error", err)
			uploads = nil
		}
	}

	report := Report{RDB: rdb, UDB: udb, BDB: bdb, Notifier: a.notifier, Mailer: mailer, Uploads: uploads}
	user := User{DB: udb, JWTSecret: a.Config.JWTSecret}
	bin := WasteBin{DB: bdb, Notifier: a.notifier}
	admin := Admin{RDB: rdb, UDB: udb, BDB: bdb, Notifier: a.notifier, Mailer: mailer}
	settings := Settings{DB: sdb}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/auth/token", http.HandlerFunc(m.CreateToken)).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/user/register", http.HandlerFunc(user.RegisterUserHandler)).Methods("POST")
	apiCreate.Handle("/user/login", http.HandlerFunc(user.LoginUserHandler)).Methods("POST")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(user.UserByIDHandler))).Methods("GET")

	apiCreate.Handle("/reports", api.Middleware(http.HandlerFunc(report.CreateReportHandler))).Methods("POST")
	apiCreate.Handle("/reports", api.Middleware(http.HandlerFunc(report.ReportsHandler))).Methods("GET")
	apiCreate.Handle("/reports/user/{user_id}", api.Middleware(http.HandlerFunc(report.ReportsByUserIDHandler))).Methods("GET")
	apiCreate.Handle("/reports/user/{user_id}/stats", api.Middleware(http.HandlerFunc(report.UserReportStatsHandler))).Methods("GET")

	// the literal recycle/purge paths must register before {report_id}
	wcOnly := api.RequireRole(api.RoleWasteCollector)
	adminOnly := api.RequireRole(api.RoleAdmin)

	apiCreate.Handle("/reports/recycle-pending", wcOnly(http.HandlerFunc(report.RecyclePendingReportsHandler))).Methods("PUT")
	apiCreate.Handle("/reports/recycled", adminOnly(http.HandlerFunc(report.PurgeRecycledReportsHandler))).Methods("DELETE")
	apiCreate.Handle("/reports/{report_id}", api.Middleware(http.HandlerFunc(report.ReportByIDHandler))).Methods("GET")
	apiCreate.Handle("/reports/{report_id}/admin-status", adminOnly(http.HandlerFunc(report.UpdateReportAdminHandler))).Methods("PUT")
	apiCreate.Handle("/reports/{report_id}/wc-status", wcOnly(http.HandlerFunc(report.UpdateReportWCHandler))).Methods("PUT")

	apiCreate.Handle("/wastebins", api.Middleware(http.HandlerFunc(bin.WasteBinsHandler))).Methods("GET")
	apiCreate.Handle("/wastebins", adminOnly(http.HandlerFunc(bin.CreateWasteBinHandler))).Methods("POST")
	apiCreate.Handle("/wastebins/{bin_id}", api.Middleware(http.HandlerFunc(bin.WasteBinByIDHandler))).Methods("GET")
	apiCreate.Handle("/wastebins/{bin_id}", adminOnly(http.HandlerFunc(bin.UpdateWasteBinHandler))).Methods("PUT")
	apiCreate.Handle("/wastebins/{bin_id}", adminOnly(http.HandlerFunc(bin.DeleteWasteBinHandler))).Methods("DELETE")
	apiCreate.Handle("/wastebins/{bin_id}/capacity", api.Middleware(http.HandlerFunc(bin.SimulateCapacityHandler))).Methods("PUT")

	apiCreate.Handle("/admin/dashboard/stats", adminOnly(http.HandlerFunc(admin.DashboardStatsHandler))).Methods("GET")
	apiCreate.Handle("/admin/users", adminOnly(http.HandlerFunc(admin.AdminUsersHandler))).Methods("GET")
	apiCreate.Handle("/admin/users/{user_id}", adminOnly(http.HandlerFunc(admin.AdminUpdateUserHandler))).Methods("PUT")
	apiCreate.Handle("/admin/users/{user_id}", adminOnly(http.HandlerFunc(admin.AdminDeleteUserHandler))).Methods("DELETE")
	apiCreate.Handle("/admin/reports/bulk-update", adminOnly(http.HandlerFunc(admin.BulkVerdictHandler))).Methods("PUT")

	apiCreate.Handle("/admin/settings", adminOnly(http.HandlerFunc(settings.SettingsHandler))).Methods("GET")
	apiCreate.Handle("/admin/settings", adminOnly(http.HandlerFunc(settings.UpdateSettingsHandler))).Methods("PUT")
	apiCreate.Handle("/admin/settings/reset", adminOnly(http.HandlerFunc(settings.ResetSettingsHandler))).Methods("POST")

	if a.hub != nil {
		r.HandleFunc("/ws/notifications", a.hub.HandleWebSocket)
	}

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("ecotrack-api has connected to the database")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	databases.EnsureIndexes(ctx, a.dbHelper)

	// realtime channels: Socket.IO plus the legacy websocket hub
	a.hub = NewNotificationHub()
	socketServer := InitializeSocketIO()
	a.notifier = &SocketNotifier{Server: socketServer, Hub: a.hub}

	a.Scheduler = scheduler.NewScheduler(databases.NewReportDatabase(a.dbHelper))
	a.Scheduler.Start()

	// initialize api router
	a.initializeRoutes()
	a.Router.Handle("/socket.io/", socketServer)
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
