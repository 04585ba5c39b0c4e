package routes

import (
	"net/http"

	"github.com/eduplatform/eduplatform-api/internal/authz"
	"github.com/eduplatform/eduplatform-api/internal/handlers"
	"github.com/eduplatform/eduplatform-api/internal/models"
	"github.com/gorilla/mux"
)

// NewRouter sets up the API routes
func NewRouter(
	auth *handlers.AuthHandler,
	users *handlers.UserHandler,
	assignments *handlers.AssignmentHandler,
	schedules *handlers.ScheduleHandler,
	notifications *handlers.NotificationHandler,
	reports *handlers.ReportHandler,
) *mux.Router {
	router := mux.NewRouter()

	// Health check route
	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)

	// Public auth endpoints
	router.HandleFunc("/api/signup", auth.SignUp).Methods(http.MethodPost)
	router.HandleFunc("/api/login", auth.Login).Methods(http.MethodPost)

	// Everything below requires a valid token.
	api := router.PathPrefix("/api").Subrouter()
	api.Use(auth.JWTMiddleware)

	// Users
	api.Handle("/users", authz.RequireRoleHandler(models.RoleAdmin,
		http.HandlerFunc(users.List))).Methods(http.MethodGet)
	api.HandleFunc("/users/{userID}", users.GetProfile).Methods(http.MethodGet)
	api.HandleFunc("/users/{userID}", users.UpdateProfile).Methods(http.MethodPut)
	api.Handle("/users/{userID}", authz.RequireRoleHandler(models.RoleAdmin,
		http.HandlerFunc(users.Delete))).Methods(http.MethodDelete)
	api.HandleFunc("/users/{userID}/grades", users.StudentGrades).Methods(http.MethodGet)
	api.Handle("/users/{userID}/progress", authz.RequireRoleHandler(models.RoleTeacher,
		http.HandlerFunc(users.StudentProgress))).Methods(http.MethodGet)

	// Assignments
	api.Handle("/assignments", authz.RequireRoleHandler(models.RoleTeacher,
		http.HandlerFunc(assignments.Create))).Methods(http.MethodPost)
	api.HandleFunc("/assignments", assignments.List).Methods(http.MethodGet)
	api.HandleFunc("/assignments/{assignmentID}", assignments.Get).Methods(http.MethodGet)
	api.HandleFunc("/assignments/{assignmentID}/submissions", assignments.Submit).Methods(http.MethodPost)
	api.Handle("/assignments/{assignmentID}/grades/{studentID}", authz.RequireRoleHandler(models.RoleTeacher,
		http.HandlerFunc(assignments.Grade))).Methods(http.MethodPut)
	api.HandleFunc("/assignments/{assignmentID}/status/{studentID}", assignments.Status).Methods(http.MethodGet)

	// Schedules
	api.Handle("/schedules", authz.RequireRoleHandler(models.RoleTeacher,
		http.HandlerFunc(schedules.Create))).Methods(http.MethodPost)
	api.HandleFunc("/schedules", schedules.List).Methods(http.MethodGet)
	api.HandleFunc("/schedules/{scheduleID}", schedules.Get).Methods(http.MethodGet)
	api.Handle("/schedules/{scheduleID}/lessons", authz.RequireRoleHandler(models.RoleTeacher,
		http.HandlerFunc(schedules.AddLesson))).Methods(http.MethodPost)
	api.Handle("/schedules/{scheduleID}/lessons/{time}", authz.RequireRoleHandler(models.RoleTeacher,
		http.HandlerFunc(schedules.RemoveLesson))).Methods(http.MethodDelete)

	// Notifications
	api.HandleFunc("/notifications", notifications.List).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{notificationID}/read", notifications.MarkRead).Methods(http.MethodPost)

	// Reports
	api.Handle("/reports/{reportType}", authz.RequireRoleHandler(models.RoleAdmin,
		http.HandlerFunc(reports.Generate))).Methods(http.MethodGet)

	return router
}
