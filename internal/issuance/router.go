package issuance

import (
	"ticketforge/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupIssuanceRoutes(rg *gin.RouterGroup, controller *Controller, mw *middleware.Middleware) {

	// PAYMENT FLOWS

	pay := rg.Group("/issuance")
	pay.Use(mw.JWTAuth())
	{
		pay.POST("/pay/native", controller.PayWithNative)             // POST /api/v1/issuance/pay/native
		pay.POST("/pay/asset", controller.PayWithAsset)               // POST /api/v1/issuance/pay/asset
		pay.POST("/pay/batch/native", controller.PayBatchWithNative)  // POST /api/v1/issuance/pay/batch/native
		pay.POST("/pay/batch/asset", controller.PayBatchWithAsset)    // POST /api/v1/issuance/pay/batch/asset
		pay.POST("/allowances", controller.SetAllowance)              // POST /api/v1/issuance/allowances
		pay.GET("/accounts/:owner/nonce", controller.GetNonce)        // GET  /api/v1/issuance/accounts/:owner/nonce
		pay.GET("/accounts/:owner/tickets", controller.ListTicketsByOwner)
	}

	// PUBLIC QUERIES

	rg.GET("/tiers", controller.ListTiers)
	rg.GET("/tiers/:id", controller.GetTier)
	rg.GET("/tickets/:id", controller.GetTicket)

	// ADMINISTRATIVE SURFACE

	admin := rg.Group("/admin/issuance")
	admin.Use(mw.JWTAuth(), mw.RequireManager())
	{
		admin.POST("/mint", controller.AdminMint)
		admin.POST("/tiers", controller.CreateTier)
		admin.PUT("/tiers/supplies", controller.SetTierSupplies)
		admin.PUT("/tiers/prices", controller.SetTierPrices)
		admin.PUT("/payment-assets", controller.SetPaymentAssets)
		admin.POST("/withdraw/native", controller.WithdrawNative)
		admin.POST("/withdraw/asset", controller.WithdrawAsset)
		admin.POST("/pause", controller.Pause)
		admin.POST("/unpause", controller.Unpause)
		admin.GET("/balances", controller.ListBalances)
	}
}
