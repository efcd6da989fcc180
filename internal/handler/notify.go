package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hvac-crew/schedule/backend/internal/domain"
	"github.com/hvac-crew/schedule/backend/internal/notify"
)

// crewName 兼容两种写法："01": "Acme" 与 "01": {"label": "Acme"}
type crewName string

func (c *crewName) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			Label string `json:"label"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*c = crewName(obj.Label)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = crewName(s)
	return nil
}

type sendUpdateRequest struct {
	WeekKey    string              `json:"weekKey"`
	To         []string            `json:"to"`
	Recipients []string            `json:"recipients"`
	Note       string              `json:"note"`
	FromUser   string              `json:"fromUser"`
	Current    domain.Snapshot     `json:"current"`
	After      domain.Snapshot     `json:"after"`
	CrewNames  map[string]crewName `json:"crewNames"`
}

func (req sendUpdateRequest) toNotifyRequest(creds domain.Credentials) domain.NotifyRequest {
	recipients := append(append([]string{}, req.To...), req.Recipients...)

	current := req.Current
	if current == nil {
		current = req.After
	}

	var crews map[string]string
	if len(req.CrewNames) > 0 {
		crews = make(map[string]string, len(req.CrewNames))
		for row, name := range req.CrewNames {
			crews[row] = string(name)
		}
	}

	return domain.NotifyRequest{
		WeekKey:     req.WeekKey,
		Recipients:  recipients,
		Note:        strings.TrimSpace(req.Note),
		Current:     current,
		CrewNames:   crews,
		Actor:       req.FromUser,
		Credentials: creds,
	}
}

// SendUpdate 直接返回 NotifyResult 作为响应体
func (h *Handler) SendUpdate(w http.ResponseWriter, r *http.Request) {
	var req sendUpdateRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.writeJSON(w, r, http.StatusBadRequest, domain.NotifyResult{OK: false, Error: err.Error()})
		return
	}

	result, err := h.notifier.Notify(r.Context(), req.toNotifyRequest(h.credentialsFromRequest(r)))
	if err != nil {
		status := notify.HTTPStatus(err)
		if status == http.StatusInternalServerError {
			h.logInternalServerError(r, err)
		}
		h.writeJSON(w, r, status, result)
		return
	}

	h.writeJSON(w, r, http.StatusOK, result)
}
