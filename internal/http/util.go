package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

const (
	maxJSONBody   = 1 << 20
	maxImportBody = 16 << 20
	apiPrefix     = "/crm/api/v1/"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// tenantIDFromReq 优先 query 参数，其次 X-Tenant-Id header
func tenantIDFromReq(w http.ResponseWriter, r *http.Request) (string, bool) {
	if tid := strings.TrimSpace(r.URL.Query().Get("tenant_id")); tid != "" && tid != "null" {
		return tid, true
	}
	if tid := strings.TrimSpace(r.Header.Get("X-Tenant-Id")); tid != "" && tid != "null" {
		return tid, true
	}
	writeJSON(w, http.StatusOK, Fail("tenant_id is required"))
	return "", false
}

// pathSegments 去掉前缀后按 / 拆分，例如 /crm/api/v1/contacts/c-1/tags -> [c-1 tags]
func pathSegments(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

// writeError 业务错误记 Warn，其余记 Error；响应统一走 Fail
func writeError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	if isClientError(err) {
		logger.Warn(op+" rejected", zap.Error(err))
	} else {
		logger.Error(op+" failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, Fail(err.Error()))
}

func isClientError(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound,
		domain.ErrValidation,
		domain.ErrStageNotInPipeline,
		domain.ErrPipelineHasNoStages,
		domain.ErrInvalidTransition,
		domain.ErrNameNotMapped,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// parseTimeParam 支持 RFC3339 和 yyyy-MM-dd，空值返回 nil
func parseTimeParam(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseFloatParam(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func parseBoolParam(s string) (*bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func methodNotAllowed(w http.ResponseWriter) {
	w.WriteHeader(http.StatusMethodNotAllowed)
}
