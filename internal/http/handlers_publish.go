package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/botstack/publisher/internal/domain/model"
	"github.com/botstack/publisher/internal/service"
)

// PublishHandlers provides HTTP handlers for publish-related operations.
type PublishHandlers struct {
	Svc    *service.PublishService
	Logger *slog.Logger
}

// publishRequest is the JSON body of a publish call.
type publishRequest struct {
	Environment       string                 `json:"environment"`
	SubscriptionID    string                 `json:"subscriptionId"`
	Location          string                 `json:"location,omitempty"`
	ProvisionPassword string                 `json:"provisionPassword,omitempty"`
	LUIS              *model.LuisCredentials `json:"luis,omitempty"`
	Provision         json.RawMessage        `json:"provision,omitempty"`
	AccessToken       string                 `json:"accessToken,omitempty"`
	Settings          json.RawMessage        `json:"settings,omitempty"`
	Comment           string                 `json:"comment,omitempty"`
	Project           publishRequestProject  `json:"project"`
}

type publishRequestProject struct {
	Files       []publishRequestFile `json:"files"`
	Settings    json.RawMessage      `json:"settings,omitempty"`
	RuntimePath string               `json:"runtimePath,omitempty"`
}

type publishRequestFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// statusEnvelope is the wire shape of a job record.
type statusEnvelope struct {
	Status int                 `json:"status"`
	Result model.PublishResult `json:"result"`
}

func envelope(rec model.JobRecord) statusEnvelope {
	return statusEnvelope{Status: rec.Status, Result: rec.Result}
}

// Publish handles a publish request for one (bot, profile) pair.
func (h *PublishHandlers) Publish(w http.ResponseWriter, r *http.Request) {
	botID := r.PathValue("botID")
	profile := r.PathValue("profile")
	if botID == "" || profile == "" {
		WriteError(w, ErrorParams{
			Code: http.StatusBadRequest, ErrCode: "invalid_path",
			Err: errors.New("bot id and profile are required"),
		})
		return
	}

	var req publishRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	cfg := model.PublishConfig{
		Name:              profile,
		Environment:       req.Environment,
		SubscriptionID:    req.SubscriptionID,
		Location:          req.Location,
		ProvisionPassword: req.ProvisionPassword,
		LUIS:              req.LUIS,
		Provision:         req.Provision,
		AccessToken:       req.AccessToken,
		Settings:          req.Settings,
		Comment:           req.Comment,
	}

	project := model.BotProject{
		BotID:       botID,
		Settings:    req.Project.Settings,
		RuntimePath: req.Project.RuntimePath,
	}
	for _, f := range req.Project.Files {
		project.Files = append(project.Files, model.AssetFile{RelativePath: f.Path, Content: f.Content})
	}

	rec, err := h.Svc.Publish(r.Context(), &cfg, &project)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_request", Err: err})
		return
	}

	WriteJSON(w, http.StatusOK, envelope(*rec))
}

// GetStatus handles a status poll. The optional jobId query parameter selects
// a specific job; otherwise the most recent one is reported.
func (h *PublishHandlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	botID := r.PathValue("botID")
	profile := r.PathValue("profile")

	rec := h.Svc.GetStatus(botID, profile, r.URL.Query().Get("jobId"))
	WriteJSON(w, http.StatusOK, envelope(rec))
}

// GetHistory returns the full publish history for one (bot, profile) pair,
// newest first.
func (h *PublishHandlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	botID := r.PathValue("botID")
	profile := r.PathValue("profile")

	entries := h.Svc.History(botID, profile)
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	WriteJSON(w, http.StatusOK, entries)
}
