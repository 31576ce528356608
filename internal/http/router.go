// README: HTTP router registration on gin.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"atelier/internal/http/handlers"
	"atelier/internal/http/middleware"
	"atelier/internal/infra"
	"atelier/internal/modules/account"
	"atelier/internal/modules/assignment"
	"atelier/internal/modules/order"
	"atelier/internal/modules/product"
	"atelier/internal/modules/stage"
)

type RouterDeps struct {
	Orders      *order.Service
	Assignments *assignment.Service
	Stages      *stage.Service
	Products    *product.Service
	Accounts    *account.Service
	Verifier    infra.TokenVerifier
	Log         zerolog.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log), middleware.Logging(deps.Log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api", middleware.Auth(deps.Verifier))

	orderHandler := handlers.NewOrderHandler(deps.Orders)
	api.POST("/orders", orderHandler.Create)
	api.GET("/orders/:id", orderHandler.Get)
	api.GET("/orders/:id/status_log", orderHandler.StatusLog)
	api.POST("/orders/:id/payments", orderHandler.RecordPayment)
	api.POST("/orders/bulk_stage", orderHandler.BulkSetStage)

	assignmentHandler := handlers.NewAssignmentHandler(deps.Assignments)
	api.POST("/assignments", assignmentHandler.Create)
	api.GET("/orders/:id/assignments", assignmentHandler.ListByOrder)
	api.PUT("/assignments/:id/status", assignmentHandler.SetStatus)
	api.DELETE("/assignments/:id", assignmentHandler.Remove)

	stageHandler := handlers.NewStageHandler(deps.Stages)
	api.GET("/stages", stageHandler.Graph)
	api.POST("/stages", stageHandler.Create)
	api.PUT("/stages/:id", stageHandler.Update)
	api.POST("/stages/:id/roles", stageHandler.AttachRole)
	api.DELETE("/stages/:id/roles/:role", stageHandler.DetachRole)

	productHandler := handlers.NewProductHandler(deps.Products)
	api.POST("/products", productHandler.Create)
	api.GET("/products/:id", productHandler.Get)
	api.PUT("/products/:id/stages", productHandler.SetStages)

	accountHandler := handlers.NewAccountHandler(deps.Accounts)
	api.GET("/users/by_stage_role", accountHandler.GroupedByStageRole)
	api.PUT("/users/:id/roles", accountHandler.SetRoles)

	return r
}
