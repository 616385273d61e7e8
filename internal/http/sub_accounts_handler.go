package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/service"
)

const subAccountsPath = apiPrefix + "sub-accounts"

type SubAccountsHandler struct {
	subAccounts *service.SubAccountService
	logger      *zap.Logger
}

func NewSubAccountsHandler(subAccounts *service.SubAccountService, logger *zap.Logger) *SubAccountsHandler {
	return &SubAccountsHandler{subAccounts: subAccounts, logger: logger}
}

func (h *SubAccountsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	seg := pathSegments(r.URL.Path, subAccountsPath)
	if len(seg) > 1 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if len(seg) == 0 {
		switch r.Method {
		case http.MethodGet:
			items, err := h.subAccounts.ListSubAccounts(ctx, tenantID)
			if err != nil {
				writeError(w, h.logger, "ListSubAccounts", err)
				return
			}
			writeJSON(w, http.StatusOK, Ok(items))
		case http.MethodPost:
			var payload service.SubAccountRequest
			if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
				writeJSON(w, http.StatusOK, Fail("invalid body"))
				return
			}
			item, err := h.subAccounts.CreateSubAccount(ctx, tenantID, payload)
			if err != nil {
				writeError(w, h.logger, "CreateSubAccount", err)
				return
			}
			writeJSON(w, http.StatusOK, Ok(item))
		default:
			methodNotAllowed(w)
		}
		return
	}

	id := seg[0]
	switch r.Method {
	case http.MethodGet:
		item, err := h.subAccounts.GetSubAccount(ctx, tenantID, id)
		if err != nil {
			writeError(w, h.logger, "GetSubAccount", err)
			return
		}
		writeJSON(w, http.StatusOK, Ok(item))
	case http.MethodPut:
		var payload service.SubAccountRequest
		if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
			writeJSON(w, http.StatusOK, Fail("invalid body"))
			return
		}
		item, err := h.subAccounts.UpdateSubAccount(ctx, tenantID, id, payload)
		if err != nil {
			writeError(w, h.logger, "UpdateSubAccount", err)
			return
		}
		writeJSON(w, http.StatusOK, Ok(item))
	case http.MethodDelete:
		if err := h.subAccounts.DeleteSubAccount(ctx, tenantID, id); err != nil {
			writeError(w, h.logger, "DeleteSubAccount", err)
			return
		}
		writeJSON(w, http.StatusOK, Ok(map[string]any{"success": true}))
	default:
		methodNotAllowed(w)
	}
}
