package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/medeva/pharmapos-backend/api/middleware"
	pkgerrors "github.com/medeva/pharmapos-backend/pkg/errors"
)

func tenantIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.TenantIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid tenant context")
	}
	return id, nil
}

func branchIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.BranchIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "branch context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "invalid branch context")
	}
	return id, nil
}
