package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/middleware"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/models"
)

// Handlers groups every HTTP handler mounted by RegisterRoutes.
type Handlers struct {
	Metrics    *MetricsHandler
	Rooms      *RoomHandler
	Sessions   *SessionHandler
	Enrollment *EnrollmentHandler
	Attendance *AttendanceHandler
	Statistics *StatisticsHandler
	Audit      *AuditHandler
}

// RegisterRoutes mounts the probes on r and the authenticated API under prefix.
func RegisterRoutes(r gin.IRouter, prefix string, auth middleware.TokenValidator, h Handlers) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.Use(middleware.JWT(auth))

	managers := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)
	floor := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleInstructor)

	rooms := api.Group("/rooms")
	rooms.GET("", h.Rooms.List)
	rooms.GET("/:id", h.Rooms.Get)
	rooms.POST("", managers, h.Rooms.Create)
	rooms.PUT("/:id", managers, h.Rooms.Update)

	sessions := api.Group("/sessions")
	sessions.GET("", h.Sessions.List)
	sessions.GET("/:id", h.Sessions.Get)
	sessions.GET("/:id/availability", h.Sessions.Availability)
	sessions.POST("", managers, h.Sessions.Create)
	sessions.PUT("/:id", managers, h.Sessions.Update)
	sessions.POST("/:id/cancel", managers, h.Sessions.Cancel)
	sessions.GET("/:id/roster", floor, h.Attendance.Roster)
	sessions.GET("/:id/roster/export", floor, h.Attendance.Export)
	sessions.GET("/:id/stats", floor, h.Statistics.Session)
	sessions.POST("/:id/attendance/bulk", floor, h.Attendance.Bulk)

	enrollments := api.Group("/enrollments", managers)
	enrollments.GET("", h.Enrollment.List)
	enrollments.GET("/:id", h.Enrollment.Get)
	enrollments.POST("", h.Enrollment.Enroll)
	enrollments.POST("/:id/cancel", h.Enrollment.Cancel)

	attendance := api.Group("/attendance", floor)
	attendance.POST("", h.Attendance.Record)
	attendance.PUT("/:id", h.Attendance.Update)

	api.GET("/clients/:id/stats", middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, middleware.RoleSelf), h.Statistics.Client)
	api.GET("/audit/:entity/:id", middleware.RequireRoles(models.RoleAdmin), h.Audit.History)
}
