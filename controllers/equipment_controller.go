package controllers

import (
	"net/http"
	"strings"

	"Gin_postgres_redis_loan_tracker/app"
	"Gin_postgres_redis_loan_tracker/db"
	"Gin_postgres_redis_loan_tracker/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EquipmentController struct{ *Srv }

func NewEquipmentController(s *Srv) *EquipmentController { return &EquipmentController{Srv: s} }

// GET /api/equipment?active=true
func (ec *EquipmentController) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	items, err := ec.Loans.ListEquipment(c.Request.Context(), activeOnly)
	if err != nil {
		ec.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": items})
}

// Admin: add an equipment type with its opening stock.
func (ec *EquipmentController) Create(c *gin.Context) {
	var in struct {
		Name              string `json:"name" binding:"required"`
		Code              string `json:"code"`
		Unit              string `json:"unit"`
		AvailableQuantity int    `json:"availableQuantity" binding:"gte=0"`
		IsActive          *bool  `json:"isActive"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	eq := &models.Equipment{
		ID:                uuid.NewString(),
		Name:              strings.TrimSpace(in.Name),
		Code:              strings.TrimSpace(in.Code),
		Unit:              strings.TrimSpace(in.Unit),
		AvailableQuantity: in.AvailableQuantity,
		IsActive:          in.IsActive == nil || *in.IsActive,
	}
	if err := ec.Repo.CreateEquipment(c.Request.Context(), eq); err != nil {
		ec.writeErr(c, err)
		return
	}
	ec.Log.Info("equipment created", zap.String("equipment_id", eq.ID), zap.String("name", eq.Name))
	c.JSON(http.StatusCreated, eq)
}

// Admin: descriptive edits and (de)activation. Stock only moves through
// approvals and returns.
func (ec *EquipmentController) Patch(c *gin.Context) {
	var in struct {
		Name     *string `json:"name"`
		Code     *string `json:"code"`
		Unit     *string `json:"unit"`
		IsActive *bool   `json:"isActive"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	eq, err := ec.Repo.UpdateEquipment(c.Request.Context(), c.Param("id"), db.EquipmentPatch{
		Name: in.Name, Code: in.Code, Unit: in.Unit, IsActive: in.IsActive,
	})
	if db.IsNotFound(err) {
		app.Abort(c, http.StatusNotFound, "NOT_FOUND", "equipment not found")
		return
	}
	if err != nil {
		ec.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, eq)
}

func (ec *EquipmentController) Delete(c *gin.Context) {
	err := ec.Repo.DeleteEquipment(c.Request.Context(), c.Param("id"))
	if db.IsNotFound(err) {
		app.Abort(c, http.StatusNotFound, "NOT_FOUND", "equipment not found")
		return
	}
	if err != nil {
		ec.writeErr(c, err)
		return
	}
	ec.Log.Info("equipment deleted", zap.String("equipment_id", c.Param("id")))
	c.Status(http.StatusNoContent)
}
