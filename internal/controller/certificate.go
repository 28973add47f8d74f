package controller

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"
	"github.com/udid-foundation/udid-chain/internal/constant"
	"github.com/udid-foundation/udid-chain/internal/model"
	"github.com/udid-foundation/udid-chain/internal/service"
	"github.com/udid-foundation/udid-chain/internal/util"
	"github.com/udid-foundation/udid-chain/pkg/udid"
)

type CertificateController struct {
	*baseController
}

// issueStatusCode maps issuance failures onto HTTP codes. Ledger failures
// are reported as a plain 500, never downgraded to a partial success.
func issueStatusCode(err error) int {
	switch {
	case errors.Is(err, service.ErrApplicationNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidState), errors.Is(err, service.ErrAlreadyIssued):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type issueCertificateRequest struct {
	ApplicationID string `json:"applicationId" binding:"required"`
}

func (cc CertificateController) Issue(ctx *gin.Context) {
	authUser, err := cc.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(err), nil)
		return
	}

	var body issueCertificateRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "", util.GenerateErrorMessages(err), nil)
		return
	}

	certificate, err := cc.app.Service.Issuance.Issue(ctx, body.ApplicationID, authUser.ID)
	if err != nil {
		util.ResponseFailed(ctx, issueStatusCode(err), "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseCreated(ctx, gin.H{
		"certificate": certificate,
	})
}

// Verify is the public endpoint behind the QR code. No authentication, the
// response already limits itself to what is printed on the certificate.
func (cc CertificateController) Verify(ctx *gin.Context) {
	query := service.VerifyQuery{
		CertificateNumber: ctx.Query("certificateNumber"),
		Digest:            ctx.Query("hash"),
	}

	result, err := cc.app.Service.Verification.Verify(ctx, query)
	if err != nil {
		if errors.Is(err, service.ErrBadRequest) {
			util.ResponseFailed(ctx, http.StatusBadRequest, "", util.GenerateErrorMessages(err), nil)
			return
		}
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, result)
}

func (cc CertificateController) MyCertificates(ctx *gin.Context) {
	authUser, err := cc.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(err), nil)
		return
	}

	certificates, err := cc.app.Repository.Certificate.ListByHolder(ctx, nil, authUser.ID)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"certificates": certificates,
	})
}

// loadCertificate fetches the certificate and enforces read access the same
// way applications do: holders see their own, staff see everything.
func (cc CertificateController) loadCertificate(ctx *gin.Context) (*model.Certificate, bool) {
	authUser, err := cc.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(err), nil)
		return nil, false
	}

	certificate, err := cc.app.Repository.Certificate.GetById(ctx, nil, ctx.Param("certificateId"))
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return nil, false
	}
	if certificate == nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "Certificate not found", util.GenerateErrorMessages(errors.New("certificate not found")), nil)
		return nil, false
	}

	isStaff := util.HasRole(authUser.Role, []constant.UserRole{constant.UserRoleDoctor, constant.UserRoleAdmin})
	if !isStaff && certificate.HolderID != authUser.ID {
		util.ResponseFailed(ctx, http.StatusForbidden, "", util.GenerateErrorMessages(errors.New("not your certificate")), nil)
		return nil, false
	}

	return certificate, true
}

func (cc CertificateController) GetById(ctx *gin.Context) {
	certificate, ok := cc.loadCertificate(ctx)
	if !ok {
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"certificate": certificate,
	})
}

func (cc CertificateController) GetByApplication(ctx *gin.Context) {
	authUser, err := cc.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(err), nil)
		return
	}

	certificate, err := cc.app.Repository.Certificate.GetByApplicationId(ctx, nil, ctx.Param("applicationId"))
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}
	if certificate == nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "Certificate not found", util.GenerateErrorMessages(errors.New("certificate not found")), nil)
		return
	}

	isStaff := util.HasRole(authUser.Role, []constant.UserRole{constant.UserRoleDoctor, constant.UserRoleAdmin})
	if !isStaff && certificate.HolderID != authUser.ID {
		util.ResponseFailed(ctx, http.StatusForbidden, "", util.GenerateErrorMessages(errors.New("not your certificate")), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"certificate": certificate,
	})
}

// Download streams the certificate PDF. Rendered documents are cached in the
// object store keyed by certificate number, a miss renders and uploads.
func (cc CertificateController) Download(ctx *gin.Context) {
	certificate, ok := cc.loadCertificate(ctx)
	if !ok {
		return
	}

	bucket := cc.app.Config.Minio.BUCKET
	objectName := fmt.Sprintf("certificates/%s.pdf", certificate.CertificateNumber)

	object, err := cc.app.S3.GetObject(ctx, bucket, objectName, minio.GetObjectOptions{})
	if err == nil {
		if info, statErr := object.Stat(); statErr == nil {
			defer object.Close()
			ctx.Header("Content-Type", "application/pdf")
			ctx.Header("Content-Length", fmt.Sprintf("%d", info.Size))
			ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", certificate.CertificateNumber+".pdf"))
			io.Copy(ctx.Writer, object)
			return
		}
		object.Close()
	}

	pdf, err := udid.RenderCertificatePdf(cc.app.Config.Certificate.TemplatePath, certificate.QrPayload, udid.PdfFields{
		CertificateNumber:    certificate.CertificateNumber,
		HolderName:           certificate.Holder.FullName(),
		DisabilityType:       certificate.DisabilityType,
		DisabilityPercentage: certificate.DisabilityPercentage,
		IssueDate:            *certificate.IssueDate,
		ValidUntil:           *certificate.ValidUntil,
	})
	if err != nil {
		cc.app.Logger.Errorf("Failed to render certificate pdf for %s: %v", certificate.CertificateNumber, err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to render certificate", util.GenerateErrorMessages(err), nil)
		return
	}

	_, err = cc.app.S3.PutObject(ctx, bucket, objectName, bytes.NewReader(pdf), int64(len(pdf)), minio.PutObjectOptions{ContentType: "application/pdf"})
	if err != nil {
		// Cache failure is not a download failure.
		cc.app.Logger.Errorf("Failed to cache certificate pdf for %s: %v", certificate.CertificateNumber, err)
	}

	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", certificate.CertificateNumber+".pdf"))
	ctx.Data(http.StatusOK, "application/pdf", pdf)
}

func (cc CertificateController) Revoke(ctx *gin.Context) {
	certificate, err := cc.app.Service.Issuance.Revoke(ctx, ctx.Param("certificateId"))
	if err != nil {
		if errors.Is(err, service.ErrCertificateNotFound) {
			util.ResponseFailed(ctx, http.StatusNotFound, "Certificate not found", util.GenerateErrorMessages(err), nil)
			return
		}
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"certificate": certificate,
	})
}
