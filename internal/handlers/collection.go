package handlers

import (
	"net/http"

	"bin_monitoring/internal/service"

	"github.com/gin-gonic/gin"
)

// CollectRequest is the optional payload of both collect endpoints.
type CollectRequest struct {
	Note string `json:"note,omitempty" example:"emptied, lid replaced"`
}

// @Summary      Mark own bin collected
// @Description  Resets the owner's bin to EMPTY, appends a collection record and fulfils the pending request atomically. Owner or admin.
// @Tags         collection
// @Accept       json
// @Produce      json
// @Param        userId  path      int             true   "Owner user ID"
// @Param        body    body      CollectRequest  false  "Note"
// @Success      200     {object}  service.CollectionResult
// @Failure      403     {object}  map[string]string
// @Failure      404     {object}  map[string]string
// @Failure      503     {object}  map[string]string
// @Router       /api/user/collect-bin/{userId} [post]
// @Security     BearerAuth
func (h *Handler) collectBin(c *gin.Context) {
	ownerID, ok := ownerIDParam(c)
	if !ok {
		return
	}
	caller := principal(c)
	if caller.UserID != ownerID && caller.Role != service.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": errForbidden})
		return
	}
	h.completeCollection(c, ownerID, caller.UserID)
}

// @Summary      Company marks bin collected
// @Description  Same as collect-bin, performed by the collection company. Company or admin.
// @Tags         collection
// @Accept       json
// @Produce      json
// @Param        userId  path      int             true   "Owner user ID"
// @Param        body    body      CollectRequest  false  "Note"
// @Success      200     {object}  service.CollectionResult
// @Failure      403     {object}  map[string]string
// @Failure      404     {object}  map[string]string
// @Failure      503     {object}  map[string]string
// @Router       /api/user/collect-bin-by-company/{userId} [post]
// @Security     BearerAuth
func (h *Handler) collectBinByCompany(c *gin.Context) {
	ownerID, ok := ownerIDParam(c)
	if !ok {
		return
	}
	h.completeCollection(c, ownerID, principal(c).UserID)
}

func (h *Handler) completeCollection(c *gin.Context, ownerID, collectorID int64) {
	var body CollectRequest
	if err := bindOptionalJSON(c, &body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	res, err := h.services.CompleteCollectionForOwner(c.Request.Context(), ownerID, collectorID, body.Note)
	if err != nil {
		h.serviceError(c, "collection_failed", err, "owner_id", ownerID, "collector_id", collectorID)
		return
	}
	c.JSON(http.StatusOK, res)
}

func ownerIDParam(c *gin.Context) (int64, bool) {
	id, ok := positiveParam(c, "userId")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidUserID})
	}
	return id, ok
}
