package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hvac-crew/schedule/backend/internal/domain"
	"github.com/hvac-crew/schedule/backend/internal/mailer"
	"go.uber.org/zap"
)

const diagKey = "__diag_test__"

type diagFailure struct {
	OK    bool   `json:"ok"`
	Where string `json:"where"`
	Error string `json:"error"`
}

// DiagSMTP 检查 SMTP 连接与认证；带 to 参数时额外发送一封测试邮件
func (h *Handler) DiagSMTP(w http.ResponseWriter, r *http.Request) {
	if h.smtp == nil {
		h.writeJSON(w, r, http.StatusBadGateway, diagFailure{Where: "config", Error: mailer.ErrTransportNotConfigured.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Email.SendTimeout)*time.Second)
	defer cancel()

	if err := h.smtp.Check(ctx); err != nil {
		h.logger.Warn("SMTP 检查失败", zap.Error(err))
		h.writeJSON(w, r, http.StatusBadGateway, diagFailure{Where: "verify", Error: err.Error()})
		return
	}

	to := r.URL.Query().Get("to")
	if to == "" {
		h.successResponse(w, r, map[string]any{"verified": true, "sent": false})
		return
	}
	if err := h.validate.Var(to, "email"); err != nil {
		h.badRequest(w, r, errors.New("invalid to address"))
		return
	}

	id := uuid.NewString()
	err := h.smtp.Send(ctx, domain.Mail{
		ID:      id,
		To:      []string{to},
		Subject: "SMTP test from " + h.config.Email.FromName,
		HTML:    "<p>SMTP diagnostics: this test message was delivered.</p>",
		Text:    "SMTP diagnostics: this test message was delivered.",
	})
	if err != nil {
		h.logger.Warn("SMTP 测试邮件发送失败", zap.Error(err))
		h.writeJSON(w, r, http.StatusBadGateway, diagFailure{Where: "send", Error: err.Error()})
		return
	}

	h.successResponse(w, r, map[string]any{"verified": true, "sent": true, "id": id})
}

// DiagStore 写入并读回一条测试数据，并统计各命名空间的键数量
func (h *Handler) DiagStore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.store.Ping(ctx); err != nil {
		h.storeError(w, r, err)
		return
	}

	stamp := time.Now().UTC().Format(time.RFC3339Nano)
	if err := h.store.SaveBlob(ctx, &domain.Blob{
		Namespace: domain.NamespaceWeeks,
		Key:       diagKey,
		Data:      domain.Snapshot{"stamp": domain.String(stamp)},
	}); err != nil {
		h.storeError(w, r, err)
		return
	}

	blob, err := h.store.GetBlob(ctx, domain.NamespaceWeeks, diagKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.New("diagnostic key vanished after write")
		}
		h.storeError(w, r, err)
		return
	}

	counts := map[string]int{}
	for _, ns := range []string{domain.NamespaceWeeks, domain.NamespacePersistent, domain.NamespaceBaselines} {
		keys, err := h.store.ListBlobKeys(ctx, ns)
		if err != nil {
			h.storeError(w, r, err)
			return
		}
		counts[ns] = len(keys)
	}

	h.successResponse(w, r, map[string]any{
		"roundTrip": blob.Data["stamp"].Text() == stamp,
		"counts":    counts,
	})
}
