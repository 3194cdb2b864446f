package controller

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"barangayku_backend/internals/events"
	certDTO "barangayku_backend/internals/features/certificates/dto"
	certModel "barangayku_backend/internals/features/certificates/model"
	helpers "barangayku_backend/internals/helpers"
)

type AdminCertificateController struct {
	DB        *gorm.DB
	Publisher *events.Publisher
	Validate  *validator.Validate
}

func NewAdminCertificateController(db *gorm.DB, publisher *events.Publisher) *AdminCertificateController {
	return &AdminCertificateController{DB: db, Publisher: publisher, Validate: validator.New()}
}

// slug → (display type, table); the URL uses slugs, the ledger uses names.
var typeSlugs = map[string]struct {
	certType string
	table    string
}{
	"barangay-certificate":  {certModel.TypeBarangayCertificate, certModel.BarangayCertificateRequest{}.TableName()},
	"barangay-clearance":    {certModel.TypeBarangayClearance, certModel.BarangayClearanceRequest{}.TableName()},
	"business-permit":       {certModel.TypeBusinessPermit, certModel.BusinessPermitRequest{}.TableName()},
	"residency-certificate": {certModel.TypeResidencyCertificate, certModel.ResidencyCertificateRequest{}.TableName()},
}

/* ===================== Listing ===================== */

// GET /api/a/certificates?type=&status=
func (ac *AdminCertificateController) ListRequests(c *fiber.Ctx) error {
	typeFilter := ""
	if slug := strings.TrimSpace(c.Query("type")); slug != "" {
		entry, ok := typeSlugs[slug]
		if !ok {
			return helpers.JsonError(c, fiber.StatusBadRequest, "Unknown certificate type")
		}
		typeFilter = entry.certType
	}

	items, err := collectRequests(ac.DB, nil, typeFilter)
	if err != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to load requests")
	}

	if status := strings.ToUpper(strings.TrimSpace(c.Query("status"))); status != "" {
		if !certModel.IsValidRequestStatus(status) {
			return helpers.JsonError(c, fiber.StatusBadRequest, "Unknown status")
		}
		filtered := items[:0]
		for _, it := range items {
			if it.Status == status {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}

	return helpers.JsonOK(c, "Requests retrieved", items)
}

/* ===================== Status update ===================== */

// PATCH /api/a/certificates/:type/:id/status
func (ac *AdminCertificateController) UpdateStatus(c *fiber.Ctx) error {
	entry, ok := typeSlugs[c.Params("type")]
	if !ok {
		return helpers.JsonError(c, fiber.StatusBadRequest, "Unknown certificate type")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helpers.JsonError(c, fiber.StatusBadRequest, "Invalid request id")
	}

	var req certDTO.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ac.Validate.Struct(req); err != nil {
		return helpers.JsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	res := ac.DB.Table(entry.table).
		Where("id = ?", id).
		Update("status", req.Status)
	if res.Error != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to update status")
	}
	if res.RowsAffected == 0 {
		return helpers.JsonError(c, fiber.StatusNotFound, "Request not found")
	}

	ac.Publisher.Publish(events.KeyCertificateStatusChanged, fiber.Map{
		"certificate_type": entry.certType,
		"request_id":       id,
		"status":           req.Status,
	})

	return helpers.JsonUpdated(c, "Status updated", fiber.Map{
		"id":               id,
		"certificate_type": entry.certType,
		"status":           req.Status,
	})
}

/* ===================== Delete ===================== */

// DELETE /api/a/certificates/:type/:id
func (ac *AdminCertificateController) DeleteRequest(c *fiber.Ctx) error {
	// staff can list and update, hard delete stays admin only
	if helpers.GetRoleFromLocals(c) != "admin" {
		return helpers.JsonError(c, fiber.StatusForbidden, "Only admins can delete requests")
	}
	entry, ok := typeSlugs[c.Params("type")]
	if !ok {
		return helpers.JsonError(c, fiber.StatusBadRequest, "Unknown certificate type")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helpers.JsonError(c, fiber.StatusBadRequest, "Invalid request id")
	}

	res := ac.DB.Exec("DELETE FROM "+entry.table+" WHERE id = ?", id)
	if res.Error != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to delete request")
	}
	if res.RowsAffected == 0 {
		return helpers.JsonError(c, fiber.StatusNotFound, "Request not found")
	}
	return helpers.JsonDeleted(c, "Request deleted", fiber.Map{"id": id})
}

/* ===================== Fees ===================== */

// PUT /api/a/certificates/fees
func (ac *AdminCertificateController) UpdateFees(c *fiber.Ctx) error {
	var req certDTO.UpdateFeesRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ac.Validate.Struct(req); err != nil {
		return helpers.JsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	for _, f := range req.Fees {
		if _, ok := certModel.DefaultFees[f.CertificateType]; !ok {
			return helpers.JsonError(c, fiber.StatusBadRequest, "Unknown certificate type: "+f.CertificateType)
		}
	}

	err := ac.DB.Transaction(func(tx *gorm.DB) error {
		for _, f := range req.Fees {
			row := certModel.FeeSetting{
				CertificateType: f.CertificateType,
				AmountCentavos:  f.AmountCentavos,
			}
			if err := tx.Save(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to update fees")
	}

	return helpers.JsonUpdated(c, "Fees updated", nil)
}
