package listings

import (
	"ticketforge/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupListingRoutes(rg *gin.RouterGroup, controller *Controller, mw *middleware.Middleware) {

	// PUBLIC QUERIES

	rg.GET("/listings", controller.ListActiveListings)
	rg.GET("/listings/:id", controller.GetListing)
	rg.GET("/supported-contracts", controller.ListSupportedContracts)
	rg.GET("/tickets/:id/status", controller.GetTicketStatus)

	// MARKET OPERATIONS

	market := rg.Group("/listings")
	market.Use(mw.JWTAuth())
	{
		market.POST("", controller.CreateListing)                 // POST   /api/v1/listings
		market.POST("/:id/purchase", controller.PurchaseListing)  // POST   /api/v1/listings/:id/purchase
		market.DELETE("/:id", controller.CancelListing)           // DELETE /api/v1/listings/:id
	}

	// ORACLE CALLBACK

	oracle := rg.Group("/oracle")
	oracle.Use(mw.JWTAuth(), mw.RequireOracle())
	{
		oracle.POST("/verification/callback", controller.VerificationCallback)
	}

	// ADMINISTRATIVE SURFACE

	admin := rg.Group("/admin/listings")
	admin.Use(mw.JWTAuth(), mw.RequireManager())
	{
		admin.POST("/:id/cancel", controller.EmergencyCancelListing)
		admin.PUT("/fee", controller.SetFee)
		admin.PUT("/fee-recipient", controller.SetFeeRecipient)
		admin.PUT("/durations", controller.SetDurations)
		admin.PUT("/contracts", controller.AddSupportedContract)
		admin.DELETE("/contracts", controller.RemoveSupportedContract)
		admin.POST("/pause", controller.Pause)
		admin.POST("/unpause", controller.Unpause)
	}
}
