package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hvac-crew/schedule/backend/internal/domain"
	"github.com/hvac-crew/schedule/backend/internal/repository"
	"github.com/hvac-crew/schedule/backend/internal/utils"
	"go.uber.org/zap"
)

func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, repository.ErrStoreNotConfigured) {
		h.errorResponse(w, r, http.StatusInternalServerError, "store-not-configured")
		return
	}
	h.internalServerError(w, r, err)
}

func (h *Handler) ListWeeks(w http.ResponseWriter, r *http.Request) {
	keys, err := h.store.ListBlobKeys(r.Context(), domain.NamespaceWeeks)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	// 诊断接口写入的测试键不是排班
	weeks := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != diagKey {
			weeks = append(weeks, k)
		}
	}
	h.successResponse(w, r, weeks)
}

func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	weekKey := chi.URLParam(r, "weekKey")
	if err := utils.ValidateWeekKey(weekKey); err != nil {
		h.badRequest(w, r, err)
		return
	}

	blob, err := h.store.GetBlob(r.Context(), domain.NamespaceWeeks, weekKey)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// 没有保存过的周返回空对象
			h.successResponse(w, r, domain.Snapshot{})
		default:
			h.storeError(w, r, err)
		}
		return
	}

	data := blob.Data
	if data == nil {
		data = domain.Snapshot{}
	}
	h.successResponse(w, r, data)
}

func (h *Handler) SaveWeek(w http.ResponseWriter, r *http.Request) {
	weekKey := chi.URLParam(r, "weekKey")
	if err := utils.ValidateWeekKey(weekKey); err != nil {
		h.badRequest(w, r, err)
		return
	}

	body := map[string]json.RawMessage{}
	if err := h.readJSON(w, r, &body); err != nil {
		h.badRequest(w, r, err)
		return
	}
	data, err := utils.ExtractWeekData(body)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	blob := &domain.Blob{
		Namespace: domain.NamespaceWeeks,
		Key:       weekKey,
		Data:      data,
		Metadata:  map[string]string{"savedBy": usernameFromContext(r.Context())},
	}
	if err := h.store.SaveBlob(r.Context(), blob); err != nil {
		h.storeError(w, r, err)
		return
	}

	h.logger.Info("已保存排班", zap.String("week", weekKey), zap.Int("cells", len(data)), zap.String("username", usernameFromContext(r.Context())))
	h.successResponse(w, r, map[string]any{"saved": len(data), "weekKey": weekKey})
}
