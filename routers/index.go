package routers

import (
	"net/http"

	"github.com/boring-ventures/peyo-onramp/config"
	"github.com/boring-ventures/peyo-onramp/controllers"
	"github.com/boring-ventures/peyo-onramp/routers/middleware"
	"github.com/gin-gonic/gin"
)

// Routes builds the gin engine with all middleware and endpoints mounted
func Routes() *gin.Engine {
	conf := config.ServerConfig()

	if conf.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	route := gin.New()
	route.Use(gin.Logger())
	route.Use(gin.Recovery())
	route.Use(middleware.CORSMiddleware())
	route.Use(middleware.RateLimitMiddleware())

	route.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	ctrl := controllers.NewController()

	v1 := route.Group("/v1")
	v1.Use(middleware.ReadinessMiddleware())
	{
		v1.POST("/onboarding", ctrl.RunOnboarding)
		v1.GET("/onboarding/:identity_id", ctrl.GetOnboardingStatus)
		v1.POST("/onboarding/:identity_id/resync", ctrl.ResyncOnboarding)
		v1.POST("/onboarding/:identity_id/reset", ctrl.ResetOnboarding)
		v1.POST("/onboarding/agreement/callback", ctrl.AcceptAgreement)
		v1.POST("/liquidation-addresses/resolve", ctrl.ResolveDepositAddress)
	}

	return route
}
