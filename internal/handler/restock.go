package handler

import (
	"net/http"

	"stockroom/internal/apierror"
	"stockroom/internal/dto"
	"stockroom/internal/middleware"
	"stockroom/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RestockHandler struct{ svc service.RestockService }

func NewRestockHandler(svc service.RestockService) *RestockHandler {
	return &RestockHandler{svc: svc}
}

func (h *RestockHandler) Create(c *gin.Context) {
	var req dto.CreateRestockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	// Shop users may only request stock for their own location.
	claims := middleware.GetClaims(c)
	if claims != nil && claims.Role == "shop" && claims.LocationID != nil && *claims.LocationID != req.LocationID {
		c.JSON(http.StatusForbidden, apierror.New("cannot request stock for another location"))
		return
	}
	resp, err := h.svc.CreateRequest(c.Request.Context(), actorFromClaims(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *RestockHandler) List(c *gin.Context) {
	var filter dto.RestockFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	// Hidden requests are admin-only.
	claims := middleware.GetClaims(c)
	if filter.IncludeHidden && (claims == nil || claims.Role != "admin") {
		filter.IncludeHidden = false
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RestockHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RestockHandler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	// Body is optional; omitting it approves the full requested amount.
	var req dto.ApproveRestockRequest
	if c.Request.ContentLength > 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Approve(c.Request.Context(), actorFromClaims(c), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RestockHandler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	// Body is optional; a bare POST rejects without a reason.
	var req dto.RejectRestockRequest
	if c.Request.ContentLength > 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Reject(c.Request.Context(), actorFromClaims(c), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RestockHandler) Fulfill(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.Fulfill(c.Request.Context(), actorFromClaims(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RestockHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.CancelRestockRequest
	if c.Request.ContentLength > 0 && !bindAndValidate(c, &req) {
		return
	}
	// Shop users may only cancel requests for their own location.
	claims := middleware.GetClaims(c)
	if claims != nil && claims.Role == "shop" {
		existing, err := h.svc.Get(c.Request.Context(), id)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		if claims.LocationID == nil || *claims.LocationID != existing.LocationID {
			c.JSON(http.StatusForbidden, apierror.New("cannot cancel a request for another location"))
			return
		}
	}
	resp, err := h.svc.Cancel(c.Request.Context(), actorFromClaims(c), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RestockHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	if err := h.svc.SoftDelete(c.Request.Context(), actorFromClaims(c), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
