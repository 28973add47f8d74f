package controller

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/udid-foundation/udid-chain/internal/constant"
	"github.com/udid-foundation/udid-chain/internal/model"
	"github.com/udid-foundation/udid-chain/internal/queue"
	"github.com/udid-foundation/udid-chain/internal/repository"
	"github.com/udid-foundation/udid-chain/internal/util"
)

type ApplicationController struct {
	*baseController
}

type submitApplicationRequest struct {
	DisabilityType        string     `json:"disabilityType" binding:"required"`
	DisabilityDescription string     `json:"disabilityDescription" binding:"required,strNotEmpty,cmax=1000"`
	ClaimedPercentage     int        `json:"claimedPercentage" binding:"gte=0,lte=100"`
	DisabledSince         *time.Time `json:"disabledSince"`
}

func (ac ApplicationController) Submit(ctx *gin.Context) {
	authUser, err := ac.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(err), nil)
		return
	}

	var body submitApplicationRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "", util.GenerateErrorMessages(err), nil)
		return
	}

	if !constant.IsValidDisabilityType(body.DisabilityType) {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Unknown disability type", util.GenerateErrorMessages(errors.New("unknown disability type"), "disabilityType"), nil)
		return
	}

	application, err := ac.app.Repository.Application.Create(ctx, nil, &model.Application{
		HolderID:              authUser.ID,
		DisabilityType:        body.DisabilityType,
		DisabilityDescription: body.DisabilityDescription,
		ClaimedPercentage:     body.ClaimedPercentage,
		DisabledSince:         body.DisabledSince,
	})
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	if ac.app.Queue != nil {
		err := ac.app.Queue.PublishApplicationSubmitted(queue.ApplicationSubmittedPayload{
			Email:             authUser.Email,
			HolderName:        authUser.FirstName + " " + authUser.LastName,
			ApplicationNumber: application.ApplicationNumber,
		})
		if err != nil {
			ac.app.Logger.Errorf("Failed to publish application submitted mail: %v", err)
		}
	}

	util.ResponseCreated(ctx, gin.H{
		"application": application,
	})
}

func (ac ApplicationController) MyApplications(ctx *gin.Context) {
	authUser, err := ac.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(err), nil)
		return
	}

	applications, err := ac.app.Repository.Application.ListByHolder(ctx, nil, authUser.ID)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"applications": applications,
	})
}

// loadApplication fetches the application and enforces read access: holders
// see their own, staff see everything.
func (ac ApplicationController) loadApplication(ctx *gin.Context) (*model.Application, bool) {
	authUser, err := ac.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(err), nil)
		return nil, false
	}

	application, err := ac.app.Repository.Application.GetById(ctx, nil, ctx.Param("applicationId"))
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return nil, false
	}
	if application == nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "Application not found", util.GenerateErrorMessages(errors.New("application not found")), nil)
		return nil, false
	}

	isStaff := util.HasRole(authUser.Role, []constant.UserRole{constant.UserRoleDoctor, constant.UserRoleAdmin})
	if !isStaff && application.HolderID != authUser.ID {
		util.ResponseFailed(ctx, http.StatusForbidden, "", util.GenerateErrorMessages(errors.New("not your application")), nil)
		return nil, false
	}

	return application, true
}

func (ac ApplicationController) GetById(ctx *gin.Context) {
	application, ok := ac.loadApplication(ctx)
	if !ok {
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"application": application,
	})
}

func (ac ApplicationController) ListByStatus(ctx *gin.Context) {
	status := constant.ApplicationStatus(ctx.Query("status"))
	if status == "" {
		status = constant.ApplicationStatusSubmitted
	}

	applications, err := ac.app.Repository.Application.ListByStatus(ctx, nil, status)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"applications": applications,
	})
}

// transition validates the status change against the review chain and
// applies it together with the audit log entry.
func (ac ApplicationController) transition(ctx *gin.Context, application *model.Application, next constant.ApplicationStatus, notes string, update *repository.ApplicationUpdate) {
	authUser, err := ac.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(err), nil)
		return
	}

	if !application.Status.CanTransitionTo(next) {
		ac.app.Logger.Debugf("Rejected transition %s -> %s for application %s", application.Status, next, application.ID)
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid status transition", util.GenerateErrorMessages(errors.New("cannot move from "+string(application.Status)+" to "+string(next)), "status"), nil)
		return
	}

	if err := ac.app.Repository.Application.UpdateStatus(ctx, nil, application.ID, next, authUser.ID, notes, update); err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	application, err = ac.app.Repository.Application.GetById(ctx, nil, application.ID)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"application": application,
	})
}

type reviewRequest struct {
	Notes string `json:"notes" binding:"cmax=1000"`
}

func (ac ApplicationController) VerifyDocuments(ctx *gin.Context) {
	application, ok := ac.loadApplication(ctx)
	if !ok {
		return
	}

	var body reviewRequest
	if err := ctx.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		util.ResponseFailed(ctx, http.StatusBadRequest, "", util.GenerateErrorMessages(err), nil)
		return
	}

	ac.transition(ctx, application, constant.ApplicationStatusVerified, body.Notes, &repository.ApplicationUpdate{AdminNotes: &body.Notes})
}

type assignDoctorRequest struct {
	DoctorID string `json:"doctorId" binding:"required"`
}

func (ac ApplicationController) AssignDoctor(ctx *gin.Context) {
	application, ok := ac.loadApplication(ctx)
	if !ok {
		return
	}

	var body assignDoctorRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "", util.GenerateErrorMessages(err), nil)
		return
	}

	doctor, err := ac.app.Repository.User.GetById(ctx, nil, body.DoctorID)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}
	if doctor == nil || doctor.Role != constant.UserRoleDoctor {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Doctor not found", util.GenerateErrorMessages(errors.New("doctor not found"), "doctorId"), nil)
		return
	}

	ac.transition(ctx, application, constant.ApplicationStatusDoctorAssigned, "Assigned to Dr. "+doctor.FullName(), &repository.ApplicationUpdate{AssignedDoctorID: &doctor.ID})
}

type assessRequest struct {
	AssessedPercentage *int   `json:"assessedPercentage" binding:"required,gte=0,lte=100"`
	DoctorNotes        string `json:"doctorNotes" binding:"cmax=2000"`
}

func (ac ApplicationController) Assess(ctx *gin.Context) {
	authUser, err := ac.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(err), nil)
		return
	}

	application, ok := ac.loadApplication(ctx)
	if !ok {
		return
	}

	// Only the doctor the case was assigned to may record the assessment.
	if application.AssignedDoctorID == nil || *application.AssignedDoctorID != authUser.ID {
		util.ResponseFailed(ctx, http.StatusForbidden, "", util.GenerateErrorMessages(errors.New("application is not assigned to you")), nil)
		return
	}

	var body assessRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "", util.GenerateErrorMessages(err), nil)
		return
	}

	now := time.Now().UTC()
	ac.transition(ctx, application, constant.ApplicationStatusAssessed, body.DoctorNotes, &repository.ApplicationUpdate{
		AssessedPercentage: body.AssessedPercentage,
		DoctorNotes:        &body.DoctorNotes,
		AssessmentDate:     &now,
	})
}

func (ac ApplicationController) Approve(ctx *gin.Context) {
	application, ok := ac.loadApplication(ctx)
	if !ok {
		return
	}

	var body reviewRequest
	if err := ctx.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		util.ResponseFailed(ctx, http.StatusBadRequest, "", util.GenerateErrorMessages(err), nil)
		return
	}

	ac.transition(ctx, application, constant.ApplicationStatusApproved, body.Notes, &repository.ApplicationUpdate{AdminNotes: &body.Notes})
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required,strNotEmpty,cmax=1000"`
}

func (ac ApplicationController) Reject(ctx *gin.Context) {
	application, ok := ac.loadApplication(ctx)
	if !ok {
		return
	}

	var body rejectRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "", util.GenerateErrorMessages(err), nil)
		return
	}

	ac.transition(ctx, application, constant.ApplicationStatusRejected, body.Reason, &repository.ApplicationUpdate{RejectionReason: &body.Reason})
}
