package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the tire endpoints
func (h *TireHandler) RegisterRoutes(rg *gin.RouterGroup) {
	tires := rg.Group("/tires")
	tires.GET("/serial/:serial", h.GetBySerial)
	tires.GET("/:id", h.Get)
	tires.GET("/:id/movements", h.Movements)
	tires.GET("/:id/consistency", h.Consistency)
	tires.POST("/:id/install", h.Install)
	tires.POST("/:id/remove", h.Remove)
	tires.POST("/:id/mark-for-retread", h.MarkForRetread)
	tires.POST("/:id/dispose", h.Dispose)
	tires.POST("/:id/reverse-disposal", h.ReverseDisposal)
}

// RegisterRoutes mounts the purchase order endpoints
func (h *PurchaseOrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/purchase-orders")
	orders.POST("", h.Create)
	orders.POST("/lines/:line_id/receive", h.ReceiveLine)
	orders.GET("/:id", h.Get)
	orders.DELETE("/:id", h.Delete)
	orders.PUT("/:id/status", h.UpdateStatus)
	orders.POST("/:id/lines", h.AddLine)
	orders.PUT("/:id/lines/:line_id", h.UpdateLine)
	orders.DELETE("/:id/lines/:line_id", h.DeleteLine)
	orders.POST("/:id/receive", h.ReceiveOrder)
	orders.GET("/:id/receipts", h.ListReceipts)
}

// RegisterRoutes mounts the retread order endpoints
func (h *RetreadOrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/retread-orders")
	orders.POST("", h.Create)
	orders.GET("/:id", h.Get)
	orders.POST("/:id/send", h.Send)
	orders.POST("/:id/receive", h.Receive)
	orders.POST("/:id/cancel", h.Cancel)
	orders.POST("/:id/close", h.Close)
}

// RegisterRoutes mounts the stock endpoints
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stock", h.List)
	rg.POST("/stock/reconcile", h.Reconcile)
	rg.PUT("/stock/thresholds", h.SetThresholds)
}

// RegisterRoutes mounts the supplier registry endpoints
func (h *SupplierHandler) RegisterRoutes(rg *gin.RouterGroup) {
	suppliers := rg.Group("/suppliers")
	suppliers.POST("", h.Create)
	suppliers.GET("", h.List)
	suppliers.GET("/:id", h.Get)
	suppliers.PUT("/:id/status", h.UpdateStatus)
}

// RegisterRoutes mounts the supplier finance and posting endpoints
func (h *FinanceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/suppliers/:id/payments", h.RecordPayment)
	rg.GET("/suppliers/:id/balance", h.Balance)
	rg.POST("/finance/postings", h.PostReceipt)
	rg.GET("/finance/balance-mismatches", h.BalanceMismatches)
}
