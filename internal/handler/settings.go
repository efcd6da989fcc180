package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hvac-crew/schedule/backend/internal/domain"
	"github.com/hvac-crew/schedule/backend/internal/repository"
	"github.com/hvac-crew/schedule/backend/internal/utils"
)

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	blob, err := h.store.GetBlob(r.Context(), domain.NamespacePersistent, domain.PersistentSettingsKey)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows), errors.Is(err, repository.ErrStoreNotConfigured):
			// 设置只是增强信息，存储不可用时返回空设置
			h.successResponse(w, r, domain.Snapshot{})
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	data := blob.Data
	if data == nil {
		data = domain.Snapshot{}
	}
	h.successResponse(w, r, data)
}

func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	body := map[string]json.RawMessage{}
	if err := h.readJSON(w, r, &body); err != nil {
		h.badRequest(w, r, err)
		return
	}
	data, err := utils.ExtractSettingsData(body)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	blob := &domain.Blob{
		Namespace: domain.NamespacePersistent,
		Key:       domain.PersistentSettingsKey,
		Data:      data,
		Metadata:  map[string]string{"savedBy": usernameFromContext(r.Context())},
	}
	if err := h.store.SaveBlob(r.Context(), blob); err != nil {
		h.storeError(w, r, err)
		return
	}

	h.successResponse(w, r, map[string]int{"saved": len(data)})
}
