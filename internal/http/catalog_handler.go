package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/repository"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/service"
)

// CatalogHandler 客户、房源、内容库三个简单 CRUD 资源
type CatalogHandler struct {
	catalog *service.CatalogService
	logger  *zap.Logger
}

func NewCatalogHandler(catalog *service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	seg := pathSegments(r.URL.Path, strings.TrimSuffix(apiPrefix, "/"))
	if len(seg) == 0 || len(seg) > 2 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	id := ""
	if len(seg) == 2 {
		id = seg[1]
	}
	switch seg[0] {
	case "clients":
		h.serveClients(w, r, id)
	case "properties":
		h.serveProperties(w, r, id)
	case "content-assets":
		h.serveContentAssets(w, r, id)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *CatalogHandler) serveClients(w http.ResponseWriter, r *http.Request, id string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	switch {
	case id == "" && r.Method == http.MethodGet:
		items, err := h.catalog.ListClients(ctx, tenantID, strings.TrimSpace(r.URL.Query().Get("status")))
		h.respond(w, "ListClients", items, err)
	case id == "" && r.Method == http.MethodPost:
		var payload service.ClientRequest
		if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
			writeJSON(w, http.StatusOK, Fail("invalid body"))
			return
		}
		item, err := h.catalog.CreateClient(ctx, tenantID, payload)
		h.respond(w, "CreateClient", item, err)
	case id != "" && r.Method == http.MethodGet:
		item, err := h.catalog.GetClient(ctx, tenantID, id)
		h.respond(w, "GetClient", item, err)
	case id != "" && r.Method == http.MethodPut:
		var payload service.ClientRequest
		if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
			writeJSON(w, http.StatusOK, Fail("invalid body"))
			return
		}
		item, err := h.catalog.UpdateClient(ctx, tenantID, id, payload)
		h.respond(w, "UpdateClient", item, err)
	case id != "" && r.Method == http.MethodDelete:
		err := h.catalog.DeleteClient(ctx, tenantID, id)
		h.respond(w, "DeleteClient", map[string]any{"success": true}, err)
	default:
		methodNotAllowed(w)
	}
}

func (h *CatalogHandler) serveProperties(w http.ResponseWriter, r *http.Request, id string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	switch {
	case id == "" && r.Method == http.MethodGet:
		q := r.URL.Query()
		minPrice, err := parseFloatParam(q.Get("min_price"))
		if err != nil {
			writeJSON(w, http.StatusOK, Fail("invalid min_price"))
			return
		}
		maxPrice, err := parseFloatParam(q.Get("max_price"))
		if err != nil {
			writeJSON(w, http.StatusOK, Fail("invalid max_price"))
			return
		}
		items, err := h.catalog.ListProperties(ctx, tenantID, repository.PropertiesFilter{
			Status:   strings.TrimSpace(q.Get("status")),
			City:     strings.TrimSpace(q.Get("city")),
			MinPrice: minPrice,
			MaxPrice: maxPrice,
		})
		h.respond(w, "ListProperties", items, err)
	case id == "" && r.Method == http.MethodPost:
		var payload service.PropertyRequest
		if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
			writeJSON(w, http.StatusOK, Fail("invalid body"))
			return
		}
		item, err := h.catalog.CreateProperty(ctx, tenantID, payload)
		h.respond(w, "CreateProperty", item, err)
	case id != "" && r.Method == http.MethodGet:
		item, err := h.catalog.GetProperty(ctx, tenantID, id)
		h.respond(w, "GetProperty", item, err)
	case id != "" && r.Method == http.MethodPut:
		var payload service.PropertyRequest
		if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
			writeJSON(w, http.StatusOK, Fail("invalid body"))
			return
		}
		item, err := h.catalog.UpdateProperty(ctx, tenantID, id, payload)
		h.respond(w, "UpdateProperty", item, err)
	case id != "" && r.Method == http.MethodDelete:
		err := h.catalog.DeleteProperty(ctx, tenantID, id)
		h.respond(w, "DeleteProperty", map[string]any{"success": true}, err)
	default:
		methodNotAllowed(w)
	}
}

func (h *CatalogHandler) serveContentAssets(w http.ResponseWriter, r *http.Request, id string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	switch {
	case id == "" && r.Method == http.MethodGet:
		q := r.URL.Query()
		items, err := h.catalog.ListContentAssets(ctx, tenantID, strings.TrimSpace(q.Get("asset_type")), strings.TrimSpace(q.Get("tag")))
		h.respond(w, "ListContentAssets", items, err)
	case id == "" && r.Method == http.MethodPost:
		var payload service.ContentAssetRequest
		if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
			writeJSON(w, http.StatusOK, Fail("invalid body"))
			return
		}
		item, err := h.catalog.CreateContentAsset(ctx, tenantID, payload)
		h.respond(w, "CreateContentAsset", item, err)
	case id != "" && r.Method == http.MethodGet:
		item, err := h.catalog.GetContentAsset(ctx, tenantID, id)
		h.respond(w, "GetContentAsset", item, err)
	case id != "" && r.Method == http.MethodPut:
		var payload service.ContentAssetRequest
		if err := readBodyJSON(r, maxJSONBody, &payload); err != nil {
			writeJSON(w, http.StatusOK, Fail("invalid body"))
			return
		}
		item, err := h.catalog.UpdateContentAsset(ctx, tenantID, id, payload)
		h.respond(w, "UpdateContentAsset", item, err)
	case id != "" && r.Method == http.MethodDelete:
		err := h.catalog.DeleteContentAsset(ctx, tenantID, id)
		h.respond(w, "DeleteContentAsset", map[string]any{"success": true}, err)
	default:
		methodNotAllowed(w)
	}
}

func (h *CatalogHandler) respond(w http.ResponseWriter, op string, result any, err error) {
	if err != nil {
		writeError(w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(result))
}
