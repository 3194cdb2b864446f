package controller

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	certDTO "barangayku_backend/internals/features/certificates/dto"
	certModel "barangayku_backend/internals/features/certificates/model"
	paymentModel "barangayku_backend/internals/features/payments/model"
	paymentService "barangayku_backend/internals/features/payments/service"
	helpers "barangayku_backend/internals/helpers"
	"barangayku_backend/internals/helpers/storage"
)

type CertificateController struct {
	DB       *gorm.DB
	Blob     storage.BlobService
	Validate *validator.Validate
}

func NewCertificateController(db *gorm.DB, blob storage.BlobService) *CertificateController {
	return &CertificateController{DB: db, Blob: blob, Validate: validator.New()}
}

/* ===================== payment gate ===================== */

// requireCompletedPayment enforces the submission contract: the payment
// record must belong to the caller, be completed, match the certificate
// type, and not already back another request.
func (cc *CertificateController) requireCompletedPayment(userID uuid.UUID, paymentID, certificateType string) error {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "payment_id is required")
	}

	var rec paymentModel.PaymentRecord
	if err := cc.DB.First(&rec, "payment_id = ?", paymentID).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Payment record not found")
	}
	if rec.PaymentUserID != userID {
		return fiber.NewError(fiber.StatusForbidden, "Payment does not belong to this account")
	}
	if rec.PaymentStatus != paymentModel.PaymentStatusCompleted {
		return fiber.NewError(fiber.StatusBadRequest, "Payment is not completed")
	}
	if rec.PaymentCertificateType != certificateType {
		return fiber.NewError(fiber.StatusBadRequest, "Payment was made for a different certificate type")
	}

	// one request per payment
	var used int64
	for _, table := range []string{
		certModel.BarangayCertificateRequest{}.TableName(),
		certModel.BarangayClearanceRequest{}.TableName(),
		certModel.BusinessPermitRequest{}.TableName(),
		certModel.ResidencyCertificateRequest{}.TableName(),
	} {
		var n int64
		if err := cc.DB.Table(table).Where("payment_id = ?", paymentID).Count(&n).Error; err == nil {
			used += n
		}
	}
	if used > 0 {
		return fiber.NewError(fiber.StatusConflict, "This payment is already used by another request")
	}
	return nil
}

// rejectPendingDuplicate blocks a second pending request for the same person
// in the same table.
func (cc *CertificateController) rejectPendingDuplicate(table, fullName string, birthDate time.Time) error {
	var n int64
	if err := cc.DB.Table(table).
		Where("LOWER(full_name) = ? AND birth_date = ? AND status = ?",
			strings.ToLower(strings.TrimSpace(fullName)), birthDate, certModel.RequestStatusPending).
		Count(&n).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Duplicate check failed")
	}
	if n > 0 {
		return fiber.NewError(fiber.StatusConflict, "A pending request for this person already exists")
	}
	return nil
}

func parseBirthDate(raw string) (time.Time, int, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, 0, fiber.NewError(fiber.StatusBadRequest, "birth_date must be YYYY-MM-DD")
	}
	return t, computeAge(t), nil
}

func computeAge(birthDate time.Time) int {
	now := time.Now()
	age := now.Year() - birthDate.Year()
	if now.YearDay() < birthDate.YearDay() {
		age--
	}
	if age < 0 {
		age = 0
	}
	return age
}

/* ===================== Submissions ===================== */

// POST /api/u/certificates/barangay-certificate
func (cc *CertificateController) SubmitBarangayCertificate(c *fiber.Ctx) error {
	userID, err := helpers.GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	var req certDTO.SubmitBarangayCertificateRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := cc.Validate.Struct(req); err != nil {
		return helpers.JsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	if err := cc.requireCompletedPayment(userID, req.PaymentID, certModel.TypeBarangayCertificate); err != nil {
		return err
	}

	birthDate, age, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return err
	}
	if err := cc.rejectPendingDuplicate(certModel.BarangayCertificateRequest{}.TableName(), req.FullName, birthDate); err != nil {
		return err
	}

	rec := certModel.BarangayCertificateRequest{
		UserID:      userID,
		PaymentID:   req.PaymentID,
		FullName:    strings.TrimSpace(req.FullName),
		BirthDate:   birthDate,
		Age:         age,
		Phone:       strings.TrimSpace(req.Phone),
		Gender:      req.Gender,
		CivilStatus: req.CivilStatus,
		Purpose:     strings.TrimSpace(req.Purpose),
		Status:      certModel.RequestStatusPending,
	}
	if err := cc.DB.Create(&rec).Error; err != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to submit request")
	}
	return helpers.JsonCreated(c, "Request submitted", rec)
}

// POST /api/u/certificates/barangay-clearance (multipart)
func (cc *CertificateController) SubmitBarangayClearance(c *fiber.Ctx) error {
	userID, err := helpers.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	if !storage.IsMultipart(c) {
		return helpers.JsonError(c, fiber.StatusBadRequest, "multipart/form-data is required")
	}

	paymentID := c.FormValue("payment_id")
	if err := cc.requireCompletedPayment(userID, paymentID, certModel.TypeBarangayClearance); err != nil {
		return err
	}

	fullName := strings.TrimSpace(c.FormValue("full_name"))
	purpose := strings.TrimSpace(c.FormValue("purpose"))
	address := strings.TrimSpace(c.FormValue("address"))
	if fullName == "" || purpose == "" || address == "" {
		return helpers.JsonError(c, fiber.StatusBadRequest, "full_name, address and purpose are required")
	}

	birthDate, age, err := parseBirthDate(c.FormValue("birth_date"))
	if err != nil {
		return err
	}
	if err := cc.rejectPendingDuplicate(certModel.BarangayClearanceRequest{}.TableName(), fullName, birthDate); err != nil {
		return err
	}

	fh, err := storage.GetFormFile(c, "valid_id", "file")
	if err != nil {
		return helpers.JsonError(c, fiber.StatusBadRequest, "valid_id photo is required")
	}
	validIDURL, err := cc.Blob.UploadImage(c.Context(), userID, "valid_id", fh)
	if err != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to upload valid ID")
	}

	rec := certModel.BarangayClearanceRequest{
		UserID:       userID,
		PaymentID:    strings.TrimSpace(paymentID),
		FullName:     fullName,
		BirthDate:    birthDate,
		PlaceOfBirth: strings.TrimSpace(c.FormValue("place_of_birth")),
		Age:          age,
		Nationality:  strings.TrimSpace(c.FormValue("nationality")),
		Address:      address,
		Phone:        strings.TrimSpace(c.FormValue("phone")),
		Email:        strings.TrimSpace(c.FormValue("email")),
		Gender:       c.FormValue("gender"),
		CivilStatus:  c.FormValue("civil_status"),
		Purpose:      purpose,
		ValidIDURL:   validIDURL,
		Status:       certModel.RequestStatusPending,
	}
	if err := cc.DB.Create(&rec).Error; err != nil {
		// do not leave an orphaned blob behind
		_ = cc.Blob.DeleteByPublicURL(c.Context(), validIDURL)
		return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to submit request")
	}
	return helpers.JsonCreated(c, "Request submitted", rec)
}

// POST /api/u/certificates/business-permit (multipart)
func (cc *CertificateController) SubmitBusinessPermit(c *fiber.Ctx) error {
	userID, err := helpers.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	if !storage.IsMultipart(c) {
		return helpers.JsonError(c, fiber.StatusBadRequest, "multipart/form-data is required")
	}

	paymentID := c.FormValue("payment_id")
	if err := cc.requireCompletedPayment(userID, paymentID, certModel.TypeBusinessPermit); err != nil {
		return err
	}

	fullName := strings.TrimSpace(c.FormValue("full_name"))
	companyName := strings.TrimSpace(c.FormValue("company_name"))
	businessType := strings.TrimSpace(c.FormValue("business_type"))
	if fullName == "" || companyName == "" || businessType == "" {
		return helpers.JsonError(c, fiber.StatusBadRequest, "full_name, company_name and business_type are required")
	}

	employeeCount := 0
	if v := strings.TrimSpace(c.FormValue("employee_count")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return helpers.JsonError(c, fiber.StatusBadRequest, "employee_count must be a non-negative number")
		}
		employeeCount = n
	}

	var docURL string
	if fh := storage.TryGetFormFile(c, "supporting_doc", "file"); fh != nil {
		docURL, err = cc.Blob.UploadAny(c.Context(), userID, "supporting_doc", fh)
		if err != nil {
			return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to upload supporting document")
		}
	}

	rec := certModel.BusinessPermitRequest{
		UserID:              userID,
		PaymentID:           strings.TrimSpace(paymentID),
		FullName:            fullName,
		Position:            strings.TrimSpace(c.FormValue("position")),
		CompanyName:         companyName,
		Phone:               strings.TrimSpace(c.FormValue("phone")),
		Email:               strings.TrimSpace(c.FormValue("email")),
		BusinessType:        businessType,
		BusinessDescription: strings.TrimSpace(c.FormValue("business_description")),
		EmployeeCount:       employeeCount,
		SupportingDocURL:    docURL,
		Status:              certModel.RequestStatusPending,
	}
	if err := cc.DB.Create(&rec).Error; err != nil {
		if docURL != "" {
			_ = cc.Blob.DeleteByPublicURL(c.Context(), docURL)
		}
		return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to submit request")
	}
	return helpers.JsonCreated(c, "Request submitted", rec)
}

// POST /api/u/certificates/residency-certificate (multipart)
func (cc *CertificateController) SubmitResidencyCertificate(c *fiber.Ctx) error {
	userID, err := helpers.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	if !storage.IsMultipart(c) {
		return helpers.JsonError(c, fiber.StatusBadRequest, "multipart/form-data is required")
	}

	paymentID := c.FormValue("payment_id")
	if err := cc.requireCompletedPayment(userID, paymentID, certModel.TypeResidencyCertificate); err != nil {
		return err
	}

	fullName := strings.TrimSpace(c.FormValue("full_name"))
	currentAddress := strings.TrimSpace(c.FormValue("current_address"))
	lengthOfStay := strings.TrimSpace(c.FormValue("length_of_stay"))
	reason := strings.TrimSpace(c.FormValue("reason"))
	if fullName == "" || currentAddress == "" || lengthOfStay == "" || reason == "" {
		return helpers.JsonError(c, fiber.StatusBadRequest, "full_name, current_address, length_of_stay and reason are required")
	}

	birthDate, age, err := parseBirthDate(c.FormValue("birth_date"))
	if err != nil {
		return err
	}
	if err := cc.rejectPendingDuplicate(certModel.ResidencyCertificateRequest{}.TableName(), fullName, birthDate); err != nil {
		return err
	}

	var proofURL string
	if fh := storage.TryGetFormFile(c, "proof", "file"); fh != nil {
		proofURL, err = cc.Blob.UploadAny(c.Context(), userID, "residency_proof", fh)
		if err != nil {
			return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to upload proof of residency")
		}
	}

	rec := certModel.ResidencyCertificateRequest{
		UserID:          userID,
		PaymentID:       strings.TrimSpace(paymentID),
		FullName:        fullName,
		BirthDate:       birthDate,
		Age:             age,
		Phone:           strings.TrimSpace(c.FormValue("phone")),
		Gender:          c.FormValue("gender"),
		CivilStatus:     c.FormValue("civil_status"),
		Occupation:      strings.TrimSpace(c.FormValue("occupation")),
		CurrentAddress:  currentAddress,
		LengthOfStay:    lengthOfStay,
		PreviousAddress: strings.TrimSpace(c.FormValue("previous_address")),
		Reason:          reason,
		ProofURL:        proofURL,
		Status:          certModel.RequestStatusPending,
	}
	if err := cc.DB.Create(&rec).Error; err != nil {
		if proofURL != "" {
			_ = cc.Blob.DeleteByPublicURL(c.Context(), proofURL)
		}
		return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to submit request")
	}
	return helpers.JsonCreated(c, "Request submitted", rec)
}

/* ===================== Tracking ===================== */

// GET /api/u/certificates
func (cc *CertificateController) TrackRequests(c *fiber.Ctx) error {
	userID, err := helpers.GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	items, err := collectRequests(cc.DB, &userID, "")
	if err != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to load requests")
	}
	return helpers.JsonOK(c, "Requests retrieved", items)
}

/* ===================== Fees ===================== */

// GET /api/u/certificates/fees
func (cc *CertificateController) GetFees(c *fiber.Ctx) error {
	fees, err := LoadFees(cc.DB)
	if err != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to load fees")
	}

	items := make([]certDTO.FeeItem, 0, len(certModel.AllCertificateTypes))
	for _, t := range certModel.AllCertificateTypes {
		amount := fees[t]
		items = append(items, certDTO.FeeItem{
			CertificateType: t,
			AmountCentavos:  amount,
			AmountDisplay:   "PHP " + paymentService.CentavosToDecimal(amount),
		})
	}
	return helpers.JsonOK(c, "Fees retrieved", items)
}

// LoadFees returns the configured fee per certificate type, falling back to
// the defaults for types with no row yet.
func LoadFees(db *gorm.DB) (map[string]int64, error) {
	out := map[string]int64{}
	for t, amount := range certModel.DefaultFees {
		out[t] = amount
	}

	var rows []certModel.FeeSetting
	if err := db.Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.CertificateType] = r.AmountCentavos
	}
	return out, nil
}

/* ===================== shared query ===================== */

// collectRequests merges the four request tables into one list, newest
// first. userID nil means all users (admin); typeFilter "" means all types.
func collectRequests(db *gorm.DB, userID *uuid.UUID, typeFilter string) ([]certDTO.TrackedRequest, error) {
	var items []certDTO.TrackedRequest

	appendRows := func(certType, table string) error {
		if typeFilter != "" && typeFilter != certType {
			return nil
		}
		q := db.Table(table).
			Select("id", "full_name", "payment_id", "status", "created_at", "updated_at")
		if userID != nil {
			q = q.Where("user_id = ?", *userID)
		}
		var rows []certDTO.TrackedRequest
		if err := q.Find(&rows).Error; err != nil {
			return err
		}
		for i := range rows {
			rows[i].CertificateType = certType
		}
		items = append(items, rows...)
		return nil
	}

	pairs := []struct{ certType, table string }{
		{certModel.TypeBarangayCertificate, certModel.BarangayCertificateRequest{}.TableName()},
		{certModel.TypeBarangayClearance, certModel.BarangayClearanceRequest{}.TableName()},
		{certModel.TypeBusinessPermit, certModel.BusinessPermitRequest{}.TableName()},
		{certModel.TypeResidencyCertificate, certModel.ResidencyCertificateRequest{}.TableName()},
	}
	for _, p := range pairs {
		if err := appendRows(p.certType, p.table); err != nil {
			return nil, err
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}
