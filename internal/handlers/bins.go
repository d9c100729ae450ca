package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"bin_monitoring/internal/models"
	"bin_monitoring/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	msgRequestCreated = "collection request created"
	msgAlreadyPending = "collection request already pending"
	msgCancelled      = "collection request cancelled"
)

// RegisterBinRequest is the payload for registering a bin.
type RegisterBinRequest struct {
	OwnerID   int64    `json:"ownerId" binding:"required" example:"7"`
	Location  string   `json:"location" example:"12 Market St"`
	Latitude  *float64 `json:"latitude,omitempty" example:"41.31"`
	Longitude *float64 `json:"longitude,omitempty" example:"69.24"`
}

// AlertCompanyRequest is the optional payload of alert-company.
type AlertCompanyRequest struct {
	// Free text shown to the company
	Message string `json:"message,omitempty" example:"lid is stuck"`
	// NORMAL, HIGH or URGENT; NORMAL when empty
	Priority  string `json:"priority,omitempty" example:"HIGH"`
	CompanyID *int64 `json:"companyId,omitempty" example:"3"`
}

// bindOptionalJSON binds the body when there is one.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// @Summary      List bins
// @Tags         bins
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, bins"
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/bin [get]
// @Security     BearerAuth
func (h *Handler) listBins(c *gin.Context) {
	bins, err := h.services.ListBins(c.Request.Context())
	if err != nil {
		h.serviceError(c, "bins_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(bins),
		"bins":  bins,
	})
}

// @Summary      Get bin
// @Tags         bins
// @Produce      json
// @Param        id   path      int  true  "Bin ID"
// @Success      200  {object}  models.Bin
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/bin/{id} [get]
// @Security     BearerAuth
func (h *Handler) getBin(c *gin.Context) {
	id, ok := binIDParam(c)
	if !ok {
		return
	}
	bin, err := h.services.GetBin(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, "bin_get_failed", err, "bin_id", id)
		return
	}
	c.JSON(http.StatusOK, bin)
}

// @Summary      Register bin
// @Description  New bins start EMPTY with fill level 0. Admin only.
// @Tags         bins
// @Accept       json
// @Produce      json
// @Param        body  body      RegisterBinRequest  true  "Bin payload"
// @Success      201   {object}  models.Bin
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /api/bin [post]
// @Security     BearerAuth
func (h *Handler) registerBin(c *gin.Context) {
	var req RegisterBinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	bin, err := h.services.RegisterBin(c.Request.Context(), models.NewBin{
		OwnerID:   req.OwnerID,
		Location:  req.Location,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		h.serviceError(c, "bin_register_failed", err, "owner_id", req.OwnerID)
		return
	}
	c.JSON(http.StatusCreated, bin)
}

// @Summary      Pending collection request
// @Tags         collection
// @Produce      json
// @Param        id   path      int  true  "Bin ID"
// @Success      200  {object}  map[string]interface{}  "hasPending, request"
// @Failure      404  {object}  map[string]string
// @Router       /api/bin/{id}/pending-request [get]
// @Security     BearerAuth
func (h *Handler) pendingRequest(c *gin.Context) {
	id, ok := binIDParam(c)
	if !ok {
		return
	}
	req, pending, err := h.services.HasPending(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, "pending_request_failed", err, "bin_id", id)
		return
	}
	resp := gin.H{"hasPending": pending}
	if pending {
		resp["request"] = req
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Alert collection company
// @Description  Creates the bin's PENDING collection request. Returns 409 with the existing request when one is already pending.
// @Tags         collection
// @Accept       json
// @Produce      json
// @Param        id    path      int                  true   "Bin ID"
// @Param        body  body      AlertCompanyRequest  false  "Alert payload"
// @Success      201   {object}  map[string]interface{}  "message, status, request"
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]interface{}  "message, status, request"
// @Failure      503   {object}  map[string]string
// @Router       /api/bin/{id}/alert-company [post]
// @Security     BearerAuth
func (h *Handler) alertCompany(c *gin.Context) {
	id, ok := binIDParam(c)
	if !ok {
		return
	}
	var body AlertCompanyRequest
	if err := bindOptionalJSON(c, &body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ctx := c.Request.Context()
	caller := principal(c)

	if !h.ownsBin(c, caller, id) {
		return
	}

	req, created, err := h.services.RequestCollectionIfNeeded(ctx, id, service.AlertParams{
		RequestedBy: &caller.UserID,
		CompanyID:   body.CompanyID,
		Reason:      body.Message,
		Priority:    models.Priority(strings.ToUpper(strings.TrimSpace(body.Priority))),
	})
	if err != nil {
		h.serviceError(c, "alert_company_failed", err, "bin_id", id)
		return
	}
	if !created {
		c.JSON(http.StatusConflict, gin.H{
			"message": msgAlreadyPending,
			"status":  req.Status,
			"request": req,
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": msgRequestCreated,
		"status":  req.Status,
		"request": req,
	})
}

// @Summary      Cancel pending request
// @Tags         collection
// @Produce      json
// @Param        id   path      int  true  "Bin ID"
// @Success      200  {object}  map[string]interface{}  "message, request"
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/bin/{id}/cancel-request [post]
// @Security     BearerAuth
func (h *Handler) cancelRequest(c *gin.Context) {
	id, ok := binIDParam(c)
	if !ok {
		return
	}
	caller := principal(c)
	if caller.Role != service.RoleCompany && !h.ownsBin(c, caller, id) {
		return
	}
	req, err := h.services.CancelPending(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, "cancel_request_failed", err, "bin_id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": msgCancelled,
		"request": req,
	})
}

// @Summary      Collection history
// @Tags         collection
// @Produce      json
// @Param        id   path      int  true  "Bin ID"
// @Success      200  {object}  map[string]interface{}  "count, collections"
// @Failure      404  {object}  map[string]string
// @Router       /api/bin/{id}/collections [get]
// @Security     BearerAuth
func (h *Handler) collectionHistory(c *gin.Context) {
	id, ok := binIDParam(c)
	if !ok {
		return
	}
	records, err := h.services.CollectionHistory(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, "collection_history_failed", err, "bin_id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":       len(records),
		"collections": records,
	})
}

// ownsBin writes the error response and returns false unless caller is an admin or owns bin id.
func (h *Handler) ownsBin(c *gin.Context, caller service.Principal, id int64) bool {
	if caller.Role == service.RoleAdmin {
		return true
	}
	bin, err := h.services.GetBin(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, "bin_get_failed", err, "bin_id", id)
		return false
	}
	if bin.OwnerID != caller.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": errForbidden})
		return false
	}
	return true
}
