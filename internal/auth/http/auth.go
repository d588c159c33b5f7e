package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/4PPL8/PakGroccrry/internal/auth/domain"
	"github.com/4PPL8/PakGroccrry/internal/auth/notify"
	"github.com/4PPL8/PakGroccrry/internal/auth/service"
	"github.com/4PPL8/PakGroccrry/pkg/authsdk"
	"github.com/4PPL8/PakGroccrry/pkg/cryptox"
	"github.com/4PPL8/PakGroccrry/pkg/httpx"
	"github.com/4PPL8/PakGroccrry/pkg/jwtx"
	"github.com/4PPL8/PakGroccrry/pkg/slogx"
)

// codeDigits is the length of the emailed verification code.
const codeDigits = 6

// AuthHandler handles the verification flow endpoints.
type AuthHandler struct {
	AuthService    *service.AuthService
	Signer         *jwtx.Signer
	ResendCooldown time.Duration
}

// HandleLogin handles POST /v1/auth/login
//
//	@Summary		Start a verification flow
//	@Description	Generates a verification code for the address, emails it, and records the
//	@Description	pending flow. A repeated login for the same address replaces the previous
//	@Description	flow entirely. Delivery failure is reported in the body, not as an error:
//	@Description	the flow exists either way.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Address and optional profile"
//	@Success		200		{object}	authsdk.LoginResponse	"delivered flag and resend cooldown"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Malformed request"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WithDescription("invalid JSON body").WriteError(w)
		return
	}
	req.Address = strings.TrimSpace(req.Address)
	if req.Address == "" {
		authsdk.ErrInvalidRequest.WithDescription("address is required").WriteError(w)
		return
	}

	code, err := cryptox.GenerateDigits(codeDigits)
	if err != nil {
		log.Error("failed to generate verification code", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	delivered, err := h.AuthService.Login(ctx, req.Address, code, domain.Profile{
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		NewUser:     req.NewUser,
	})
	if err != nil {
		log.Error("login failed", "address", req.Address, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
		Delivered:          delivered,
		ResendAfterSeconds: int(h.ResendCooldown.Seconds()),
	})
}

// HandleVerify handles POST /v1/auth/verify
//
//	@Summary		Verify a code and mint a session
//	@Description	Checks the submitted code against the pending flow. Success destroys the
//	@Description	pending flow and returns a session with its bearer token. A wrong code
//	@Description	costs an attempt; expiry and the attempt cap destroy the flow.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyRequest	true	"Address and code"
//	@Success		200		{object}	authsdk.VerifyResponse	"Session and bearer token"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Malformed request or wrong code"
//	@Failure		404		{object}	authsdk.ErrorResponse	"No pending flow"
//	@Failure		410		{object}	authsdk.ErrorResponse	"Code expired"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Too many failed attempts"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/verify [post].
func (h *AuthHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WithDescription("invalid JSON body").WriteError(w)
		return
	}
	req.Address = strings.TrimSpace(req.Address)
	if req.Address == "" || req.Code == "" {
		authsdk.ErrInvalidRequest.WithDescription("address and code are required").WriteError(w)
		return
	}

	session, err := h.AuthService.VerifyCode(ctx, req.Address, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoPendingFlow):
			authsdk.ErrNoPendingFlow.WriteError(w)
		case errors.Is(err, service.ErrExpired):
			authsdk.ErrCodeExpired.WriteError(w)
		case errors.Is(err, service.ErrTooManyAttempts):
			authsdk.ErrTooManyAttempts.WriteError(w)
		case errors.Is(err, service.ErrInvalidCode):
			apiErr := authsdk.ErrInvalidCode
			// The service attaches a hint when the code email never arrived.
			if rest, ok := strings.CutPrefix(err.Error(), service.ErrInvalidCode.Error()+": "); ok {
				apiErr = apiErr.WithDescription(rest)
			}
			apiErr.WriteError(w)
		default:
			log.Error("verify failed", "address", req.Address, "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	token, err := h.Signer.Mint(session.ID, session.Address, session.DisplayName, session.ExpiresAt)
	if err != nil {
		log.Error("failed to mint session token", "session_id", session.ID, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.VerifyResponse{
		Token:   token,
		Session: toSDKSession(session),
	})
}

// HandleResend handles POST /v1/auth/resend
//
//	@Summary		Reissue the verification code
//	@Description	Generates a fresh code for the pending flow, resetting its expiry and
//	@Description	attempt count. When the email fails the flow is still reset: a 502 from
//	@Description	this endpoint means the old code is dead and a new one exists unsent.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ResendRequest	true	"Address"
//	@Success		200		{object}	authsdk.ResendResponse	"delivered flag and resend cooldown"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Malformed request"
//	@Failure		404		{object}	authsdk.ErrorResponse	"No pending flow"
//	@Failure		502		{object}	authsdk.ErrorResponse	"Code reissued but not delivered"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/resend [post].
func (h *AuthHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.ResendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WithDescription("invalid JSON body").WriteError(w)
		return
	}
	req.Address = strings.TrimSpace(req.Address)
	if req.Address == "" {
		authsdk.ErrInvalidRequest.WithDescription("address is required").WriteError(w)
		return
	}

	code, err := cryptox.GenerateDigits(codeDigits)
	if err != nil {
		log.Error("failed to generate verification code", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	if err := h.AuthService.ResendCode(ctx, req.Address, code); err != nil {
		var de *notify.DeliveryError
		switch {
		case errors.Is(err, service.ErrNoPendingFlow):
			authsdk.ErrNoPendingFlow.WriteError(w)
		case errors.As(err, &de):
			// The replacement code was committed before the send error
			// surfaced, so the client must not keep using the old one.
			authsdk.ErrDeliveryFailed.WriteError(w)
		default:
			log.Error("resend failed", "address", req.Address, "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.ResendResponse{
		Delivered:          true,
		ResendAfterSeconds: int(h.ResendCooldown.Seconds()),
	})
}

// HandleLogout handles POST /v1/auth/logout
//
//	@Summary		Log out an address
//	@Description	Removes the pending flow and every session for the address. Logging out
//	@Description	an address with nothing to clear still succeeds.
//	@Tags			Auth
//	@Accept			json
//	@Success		204	"Cleared"
//	@Failure		400	{object}	authsdk.ErrorResponse	"Malformed request"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WithDescription("invalid JSON body").WriteError(w)
		return
	}
	req.Address = strings.TrimSpace(req.Address)
	if req.Address == "" {
		authsdk.ErrInvalidRequest.WithDescription("address is required").WriteError(w)
		return
	}

	if err := h.AuthService.Logout(ctx, req.Address); err != nil {
		log.Error("logout failed", "address", req.Address, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandlePending handles GET /v1/auth/pending
//
//	@Summary		Inspect the pending flow
//	@Description	Returns the read-only projection of the in-flight verification for an
//	@Description	address. The expected code is never included. An expired flow reads as
//	@Description	absent.
//	@Tags			Auth
//	@Produce		json
//	@Param			address	query		string					true	"Contact address"
//	@Success		200		{object}	authsdk.PendingResponse	"Pending flow projection"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Missing address"
//	@Failure		404		{object}	authsdk.ErrorResponse	"No pending flow"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/pending [get].
func (h *AuthHandler) HandlePending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		authsdk.ErrInvalidRequest.WithDescription("address query parameter is required").WriteError(w)
		return
	}

	pending, err := h.AuthService.PendingUser(ctx, address)
	if err != nil {
		if errors.Is(err, service.ErrNoPendingFlow) {
			authsdk.ErrNoPendingFlow.WriteError(w)
			return
		}
		log.Error("pending lookup failed", "address", address, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.PendingResponse{
		Address:   pending.Address,
		Delivered: pending.Delivered,
		IssuedAt:  pending.IssuedAt,
		Attempts:  pending.Attempts,
	})
}

// HandleSession handles GET /v1/auth/session
//
//	@Summary		Read the authenticated session
//	@Description	Returns the session identified by the bearer token. A token whose session
//	@Description	was logged out or expired reads as unauthorized.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.Session			"Authenticated session"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing token"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/session [get].
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	sessionID := httpx.SessionIDFromCtx(ctx)
	if sessionID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	session, err := h.AuthService.SessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, service.ErrNoSession) {
			authsdk.ErrInvalidToken.WriteError(w)
			return
		}
		log.Error("session lookup failed", "session_id", sessionID, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, toSDKSession(session))
}

func toSDKSession(s domain.Session) authsdk.Session {
	return authsdk.Session{
		ID:          s.ID,
		Address:     s.Address,
		DisplayName: s.DisplayName,
		Phone:       s.Phone,
		NewUser:     s.NewUser,
		VerifiedAt:  s.VerifiedAt,
		ExpiresAt:   s.ExpiresAt,
	}
}
