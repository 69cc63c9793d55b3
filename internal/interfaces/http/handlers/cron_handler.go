package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"paybridge.backend/internal/interfaces/http/response"
	"paybridge.backend/internal/usecases"
)

type BillingService interface {
	RunBilling(ctx context.Context) (*usecases.BillingReport, error)
}

// CronHandler exposes scheduler triggers
type CronHandler struct {
	billing BillingService
}

// NewCronHandler creates a new cron handler
func NewCronHandler(billing BillingService) *CronHandler {
	return &CronHandler{billing: billing}
}

// RunSubscriptionBilling bills every due subscription once
// GET|POST /api/v1/cron/subscriptions
func (h *CronHandler) RunSubscriptionBilling(c *gin.Context) {
	report, err := h.billing.RunBilling(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"success":   true,
		"message":   "Subscription billing completed",
		"processed": report.Processed,
		"invoices":  report.Invoices,
		"skipped":   report.Skipped,
		"errors":    report.Errors,
	})
}
