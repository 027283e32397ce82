package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/medeva/pharmapos-backend/api/responses"
	"github.com/medeva/pharmapos-backend/api/validators"
	authsvc "github.com/medeva/pharmapos-backend/internal/auth"
	pkgerrors "github.com/medeva/pharmapos-backend/pkg/errors"
	"github.com/medeva/pharmapos-backend/pkg/logger"
)

// AuthLogin wires the login endpoint into the HTTP layer.
func AuthLogin(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body loginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), authsvc.LoginInput{
			Email:    body.Email,
			Password: body.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newLoginResponse(result))
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginResponse struct {
	AccessToken string        `json:"access_token"`
	ExpiresAt   time.Time     `json:"expires_at"`
	User        loginUserView `json:"user"`
}

type loginUserView struct {
	ID       uuid.UUID  `json:"id"`
	Email    string     `json:"email"`
	Role     string     `json:"role"`
	TenantID uuid.UUID  `json:"tenant_id"`
	BranchID *uuid.UUID `json:"branch_id,omitempty"`
}

func newLoginResponse(result *authsvc.LoginResult) loginResponse {
	if result == nil {
		return loginResponse{}
	}
	resp := loginResponse{
		AccessToken: result.AccessToken,
		ExpiresAt:   result.ExpiresAt,
	}
	if result.User != nil {
		resp.User = loginUserView{
			ID:       result.User.ID,
			Email:    result.User.Email,
			Role:     string(result.User.Role),
			TenantID: result.User.TenantID,
			BranchID: result.User.BranchID,
		}
	}
	return resp
}
