package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	invoicedomain "github.com/orbitcrm/orbitcrm/internal/invoice/domain"
	notificationdomain "github.com/orbitcrm/orbitcrm/internal/notification/domain"
	"github.com/orbitcrm/orbitcrm/internal/orgcontext"
)

type invoiceItemRequest struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitAmount  int64  `json:"unit_amount"`
}

type createInvoiceRequest struct {
	ContactID    string               `json:"contact_id"`
	Number       string               `json:"number"`
	CurrencyCode string               `json:"currency_code"`
	Items        []invoiceItemRequest `json:"items"`
	Tax          int64                `json:"tax"`
	DueAt        string               `json:"due_at"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dueAt, err := parseOptionalTime(req.DueAt, true)
	if err != nil {
		AbortWithError(c, newValidationError("due_at", "invalid_due_at", "invalid due_at"))
		return
	}

	invoice, err := s.invoiceSvc.Create(c.Request.Context(), invoicedomain.CreateInvoiceRequest{
		ContactID:    strings.TrimSpace(req.ContactID),
		Number:       strings.TrimSpace(req.Number),
		CurrencyCode: strings.TrimSpace(req.CurrencyCode),
		Items:        toInvoiceItems(req.Items),
		Tax:          req.Tax,
		DueAt:        dueAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		ContactID string `form:"contact_id"`
		Status    string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoices, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListInvoiceRequest{
		ContactID: strings.TrimSpace(query.ContactID),
		Status:    invoicedomain.InvoiceStatus(strings.TrimSpace(query.Status)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoices})
}

func (s *Server) GetInvoice(c *gin.Context) {
	invoice, err := s.invoiceSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

type updateInvoiceRequest struct {
	Items []invoiceItemRequest `json:"items"`
	Tax   *int64               `json:"tax"`
	DueAt string               `json:"due_at"`
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	var req updateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dueAt, err := parseOptionalTime(req.DueAt, true)
	if err != nil {
		AbortWithError(c, newValidationError("due_at", "invalid_due_at", "invalid due_at"))
		return
	}

	invoice, err := s.invoiceSvc.Update(c.Request.Context(), invoicedomain.UpdateInvoiceRequest{
		ID:    strings.TrimSpace(c.Param("id")),
		Items: toInvoiceItems(req.Items),
		Tax:   req.Tax,
		DueAt: dueAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

type updateInvoiceStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) UpdateInvoiceStatus(c *gin.Context) {
	var req updateInvoiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	status := invoicedomain.InvoiceStatus(strings.TrimSpace(req.Status))
	invoice, err := s.invoiceSvc.UpdateStatus(c.Request.Context(), strings.TrimSpace(c.Param("id")), status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if status == invoicedomain.InvoiceStatusSent {
		s.notifyInvoiceSent(c, invoice)
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

func (s *Server) RenderInvoice(c *gin.Context) {
	pdf, err := s.invoiceSvc.Render(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", `attachment; filename="invoice.pdf"`)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, pdf); err != nil {
		s.log.Error("invoice pdf write failed", zap.Error(err))
	}
}

func (s *Server) notifyInvoiceSent(c *gin.Context, invoice invoicedomain.Invoice) {
	userID, _ := orgcontext.UserIDFromContext(c.Request.Context())

	_, err := s.notificationSvc.Create(c.Request.Context(), notificationdomain.CreateNotificationRequest{
		UserID:    userID,
		ContactID: invoice.ContactID,
		Kind:      notificationdomain.KindInvoiceSent,
		Title:     "Invoice sent",
		Body:      "Invoice " + invoice.Number + " was emailed to the contact.",
	})
	if err != nil {
		s.log.Warn("invoice sent notification failed", zap.Error(err))
	}
}

func toInvoiceItems(items []invoiceItemRequest) []invoicedomain.InvoiceItem {
	if items == nil {
		return nil
	}
	out := make([]invoicedomain.InvoiceItem, 0, len(items))
	for _, item := range items {
		out = append(out, invoicedomain.InvoiceItem{
			Description: strings.TrimSpace(item.Description),
			Quantity:    item.Quantity,
			UnitAmount:  item.UnitAmount,
		})
	}
	return out
}
