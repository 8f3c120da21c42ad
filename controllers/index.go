package controllers

import (
	"errors"
	"net/http"

	bridgeErrors "github.com/boring-ventures/peyo-onramp/services/bridge/errors"
	"github.com/boring-ventures/peyo-onramp/services/liquidation"
	"github.com/boring-ventures/peyo-onramp/services/onboarding"
	"github.com/boring-ventures/peyo-onramp/types"
	u "github.com/boring-ventures/peyo-onramp/utils"
	"github.com/boring-ventures/peyo-onramp/utils/logger"

	"github.com/gin-gonic/gin"
)

// Controller is the default controller for onboarding and deposit address
// endpoints
type Controller struct {
	manager  *onboarding.Manager
	resolver *liquidation.Resolver
}

// NewController creates a new instance of Controller with injected services
func NewController() *Controller {
	return &Controller{
		manager:  onboarding.NewManager(),
		resolver: liquidation.NewResolver(),
	}
}

// NewControllerWithDeps creates a Controller from explicit services
func NewControllerWithDeps(manager *onboarding.Manager, resolver *liquidation.Resolver) *Controller {
	return &Controller{
		manager:  manager,
		resolver: resolver,
	}
}

// RunOnboarding controller starts or resumes the onboarding run for an
// identity
func (ctrl *Controller) RunOnboarding(ctx *gin.Context) {
	var profile types.KYCProfile
	if err := ctx.ShouldBindJSON(&profile); err != nil {
		logger.Errorf("error: Failed to validate payload: %v", err)
		u.APIResponse(ctx, http.StatusBadRequest, "error",
			"Failed to validate payload", u.GetErrorData(err))
		return
	}

	orchestrator := ctrl.manager.For(profile.IdentityID)
	result, err := orchestrator.Run(ctx, profile)
	if err != nil {
		ctrl.renderError(ctx, profile.IdentityID, err)
		return
	}

	if result.Status == types.OnboardingAwaitingAgreement {
		u.APIResponse(ctx, http.StatusAccepted, "success",
			"Agreement acceptance required to continue onboarding", result)
		return
	}

	u.APIResponse(ctx, http.StatusOK, "success", "Onboarding complete", result)
}

// GetOnboardingStatus controller returns the current onboarding state of an
// identity
func (ctrl *Controller) GetOnboardingStatus(ctx *gin.Context) {
	identityID := ctx.Param("identity_id")

	orchestrator, ok := ctrl.manager.Lookup(identityID)
	if !ok {
		u.APIResponse(ctx, http.StatusNotFound, "error",
			"No onboarding session found for identity", nil)
		return
	}

	u.APIResponse(ctx, http.StatusOK, "success", "Onboarding status fetched",
		orchestrator.Session().Snapshot())
}

// ResyncOnboarding controller refreshes the verification status from the
// provider
func (ctrl *Controller) ResyncOnboarding(ctx *gin.Context) {
	identityID := ctx.Param("identity_id")

	orchestrator, ok := ctrl.manager.Lookup(identityID)
	if !ok {
		u.APIResponse(ctx, http.StatusNotFound, "error",
			"No onboarding session found for identity", nil)
		return
	}

	result, err := orchestrator.Resync(ctx)
	if err != nil {
		ctrl.renderError(ctx, identityID, err)
		return
	}

	u.APIResponse(ctx, http.StatusOK, "success", "Verification status synced", result)
}

// ResetOnboarding controller discards the in-memory session of an identity
func (ctrl *Controller) ResetOnboarding(ctx *gin.Context) {
	identityID := ctx.Param("identity_id")

	orchestrator, ok := ctrl.manager.Lookup(identityID)
	if !ok {
		u.APIResponse(ctx, http.StatusNotFound, "error",
			"No onboarding session found for identity", nil)
		return
	}

	orchestrator.Reset()
	u.APIResponse(ctx, http.StatusOK, "success", "Onboarding session reset", nil)
}

// AcceptAgreement controller receives the signed agreement id from the
// hosted agreement redirect
func (ctrl *Controller) AcceptAgreement(ctx *gin.Context) {
	var payload types.AgreementCallbackPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		logger.Errorf("error: Failed to validate payload: %v", err)
		u.APIResponse(ctx, http.StatusBadRequest, "error",
			"Failed to validate payload", u.GetErrorData(err))
		return
	}

	orchestrator, ok := ctrl.manager.Lookup(payload.IdentityID)
	if !ok {
		u.APIResponse(ctx, http.StatusNotFound, "error",
			"No onboarding session found for identity", nil)
		return
	}

	orchestrator.AgreementFlow().Accept(payload.SignedAgreementID)
	u.APIResponse(ctx, http.StatusOK, "success", "Agreement accepted", nil)
}

// ResolveDepositAddress controller returns the liquidation address for an
// identity and source asset
func (ctrl *Controller) ResolveDepositAddress(ctx *gin.Context) {
	var payload types.ResolveAddressPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		logger.Errorf("error: Failed to validate payload: %v", err)
		u.APIResponse(ctx, http.StatusBadRequest, "error",
			"Failed to validate payload", u.GetErrorData(err))
		return
	}

	orchestrator, ok := ctrl.manager.Lookup(payload.IdentityID)
	if !ok || orchestrator.Session().CustomerID() == "" {
		u.APIResponse(ctx, http.StatusConflict, "error",
			"Identity has no provisioned customer, run onboarding first", nil)
		return
	}

	data, err := ctrl.resolver.Resolve(ctx, payload.IdentityID,
		orchestrator.Session().CustomerID(), payload.SourceWalletAddress,
		payload.SourceChain, payload.SourceCurrency)
	if err != nil {
		ctrl.renderError(ctx, payload.IdentityID, err)
		return
	}

	u.APIResponse(ctx, http.StatusOK, "success", "Deposit address resolved", data)
}

// renderError maps service errors to HTTP responses
func (ctrl *Controller) renderError(ctx *gin.Context, identityID string, err error) {
	var validationErr bridgeErrors.ErrValidation
	var inProgressErr bridgeErrors.ErrAlreadyInProgress
	var notFoundErr bridgeErrors.ErrNotFound
	var providerErr bridgeErrors.ErrProvider

	switch {
	case errors.As(err, &validationErr):
		u.APIResponse(ctx, http.StatusBadRequest, "error", validationErr.Reason, nil)
	case errors.As(err, &inProgressErr):
		u.APIResponse(ctx, http.StatusConflict, "error",
			"Onboarding already in progress for identity", nil)
	case errors.As(err, &notFoundErr):
		u.APIResponse(ctx, http.StatusNotFound, "error", err.Error(), nil)
	case errors.As(err, &providerErr):
		logger.WithFields(logger.Fields{
			"IdentityID": identityID,
			"Status":     providerErr.Status,
		}).Errorf("provider request failed")
		u.APIResponse(ctx, http.StatusBadGateway, "error",
			"Provider request failed", nil)
	case errors.Is(err, bridgeErrors.ErrCancelled{}):
		u.APIResponse(ctx, http.StatusConflict, "error",
			"Onboarding was cancelled", nil)
	default:
		logger.WithFields(logger.Fields{
			"IdentityID": identityID,
			"Error":      err.Error(),
		}).Errorf("request failed")
		u.APIResponse(ctx, http.StatusInternalServerError, "error",
			"Internal server error", nil)
	}
}
