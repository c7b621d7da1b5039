package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"errdeck/internal/engine/alerts"
	"errdeck/internal/engine/updates"
	"errdeck/internal/pkg/errors"
	"errdeck/internal/pkg/jsonapi"
	"errdeck/internal/pkg/validator"
	"errdeck/internal/platform/models"
	"errdeck/internal/platform/storage"
	"errdeck/internal/version"
)

const (
	slackDefaultUsername = "Errdeck"
	slackDefaultIconURL  = "https://errdeck.dev/assets/icon.png"

	testSlackMessage = "This is a test notification from the Errdeck Logger."
	testEmailMessage = "This is a test notification from the Errdeck Logger. If you received this email, your SMTP settings are correctly configured in Errdeck."
)

// AppHandler serves the integration-settings and update-check endpoints.
type AppHandler struct {
	store   storage.Storage
	alerts  *alerts.Service
	updates *updates.Client
}

func NewAppHandler(store storage.Storage, alertSvc *alerts.Service, updatesClient *updates.Client) *AppHandler {
	return &AppHandler{store: store, alerts: alertSvc, updates: updatesClient}
}

func (h *AppHandler) CheckUpdates(w http.ResponseWriter, r *http.Request) {
	latest, err := h.updates.LatestVersion(r.Context(), version.Name)
	if err != nil {
		log.Error().Err(err).Msg("update check failed")
		errors.WriteInternal(w, err)
		return
	}

	storageLatest, err := h.updates.LatestVersion(r.Context(), h.store.Name())
	if err != nil {
		log.Error().Err(err).Msg("storage update check failed")
		errors.WriteInternal(w, err)
		return
	}

	info := models.VersionInfo{
		Name:                 version.Name,
		Version:              version.Version,
		LatestVersion:        latest,
		StorageName:          h.store.Name(),
		StorageVersion:       h.store.Version(),
		StorageLatestVersion: storageLatest,
		StorageDialect:       h.store.Dialect(),
	}
	jsonapi.Write(w, http.StatusOK, jsonapi.TypeApp, "", info)
}

func (h *AppHandler) GetSlackDetails(w http.ResponseWriter, r *http.Request) {
	item, err := h.store.GetConfig(r.Context(), storage.KeySlackIntegration)
	if err != nil {
		log.Error().Err(err).Msg("failed to load slack integration")
		errors.WriteInternal(w, err)
		return
	}
	if item == nil {
		jsonapi.Write(w, http.StatusOK, jsonapi.TypeApp, "", struct{}{})
		return
	}

	var cfg models.SlackConfig
	if err := json.Unmarshal([]byte(item.Value), &cfg); err != nil {
		errors.WriteInternal(w, err)
		return
	}
	jsonapi.Write(w, http.StatusOK, jsonapi.TypeApp, item.Key, cfg.Settings())
}

func (h *AppHandler) AddSlackDetails(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := jsonapi.DecodeAttributes(r, &req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.KindBadRequest, "Invalid request body")
		return
	}

	if err := validator.IsSlackWebhookURL(req.URL); err != nil {
		errors.WriteError(w, http.StatusConflict, errors.KindConflict, "You have sent a url which is not a slack url.")
		return
	}

	existing, err := h.store.GetConfig(r.Context(), storage.KeySlackIntegration)
	if err != nil {
		errors.WriteInternal(w, err)
		return
	}
	if existing != nil {
		errors.WriteError(w, http.StatusConflict, errors.KindConflict, "You have already added a webhook url for slack.")
		return
	}

	cfg := models.SlackConfig{
		URL:      req.URL,
		Username: slackDefaultUsername,
		IconURL:  slackDefaultIconURL,
		Status:   true,
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		errors.WriteInternal(w, err)
		return
	}

	item, err := h.store.SetConfig(r.Context(), storage.KeySlackIntegration, string(raw))
	if err != nil || item == nil {
		errors.WriteInternal(w, err)
		return
	}
	jsonapi.Write(w, http.StatusOK, jsonapi.TypeApp, item.Key, cfg.Settings())
}

func (h *AppHandler) UpdateSlackDetails(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status bool `json:"status"`
	}
	if err := jsonapi.DecodeAttributes(r, &req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.KindBadRequest, "Invalid request body")
		return
	}

	item, err := h.store.GetConfig(r.Context(), storage.KeySlackIntegration)
	if err != nil || item == nil {
		errors.WriteInternal(w, err)
		return
	}

	// Single parse-and-patch path; invalid stored JSON fails fast.
	var cfg models.SlackConfig
	if err := json.Unmarshal([]byte(item.Value), &cfg); err != nil {
		errors.WriteInternal(w, err)
		return
	}
	cfg.Status = req.Status

	raw, err := json.Marshal(cfg)
	if err != nil {
		errors.WriteInternal(w, err)
		return
	}
	if _, err := h.store.SetConfig(r.Context(), storage.KeySlackIntegration, string(raw)); err != nil {
		errors.WriteInternal(w, err)
		return
	}
	jsonapi.Write(w, http.StatusOK, jsonapi.TypeApp, item.Key, cfg.Settings())
}

func (h *AppHandler) DeleteSlackDetails(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteConfig(r.Context(), storage.KeySlackIntegration); err != nil {
		errors.WriteInternal(w, err)
		return
	}
	jsonapi.Write(w, http.StatusOK, jsonapi.TypeApp, "", messageAttributes{Message: "slack integration has been removed"})
}

func (h *AppHandler) GetEmailDetails(w http.ResponseWriter, r *http.Request) {
	item, err := h.store.GetConfig(r.Context(), storage.KeyEmailIntegration)
	if err != nil {
		log.Error().Err(err).Msg("failed to load email integration")
		errors.WriteInternal(w, err)
		return
	}
	if item == nil {
		jsonapi.Write(w, http.StatusOK, jsonapi.TypeApp, "", struct{}{})
		return
	}

	var cfg models.EmailConfig
	if err := json.Unmarshal([]byte(item.Value), &cfg); err != nil {
		errors.WriteInternal(w, err)
		return
	}
	jsonapi.Write(w, http.StatusOK, jsonapi.TypeApp, item.Key, cfg)
}

func (h *AppHandler) AddEmailDetails(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Sender     string   `json:"sender"`
		Host       string   `json:"host"`
		Port       int      `json:"port"`
		Username   string   `json:"username"`
		Password   string   `json:"password"`
		Recipients []string `json:"recipients"`
	}
	if err := jsonapi.DecodeAttributes(r, &req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.KindBadRequest, "Invalid request body")
		return
	}
	if req.Sender == "" || req.Host == "" || req.Port == 0 {
		errors.WriteError(w, http.StatusBadRequest, errors.KindBadRequest, "Sender, host and port are required")
		return
	}

	cfg := models.EmailConfig{
		Sender:     req.Sender,
		Host:       req.Host,
		Port:       req.Port,
		Username:   req.Username,
		Password:   req.Password,
		Recipients: req.Recipients,
		Status:     true,
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		errors.WriteInternal(w, err)
		return
	}

	item, err := h.store.SetConfig(r.Context(), storage.KeyEmailIntegration, string(raw))
	if err != nil || item == nil {
		errors.WriteInternal(w, err)
		return
	}

	h.alerts.ClearEmailTransport()
	jsonapi.Write(w, http.StatusOK, jsonapi.TypeApp, item.Key, cfg)
}

func (h *AppHandler) UpdateEmailDetails(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status bool `json:"status"`
	}
	if err := jsonapi.DecodeAttributes(r, &req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.KindBadRequest, "Invalid request body")
		return
	}

	item, err := h.store.GetConfig(r.Context(), storage.KeyEmailIntegration)
	if err != nil || item == nil {
		errors.WriteInternal(w, err)
		return
	}

	var cfg models.EmailConfig
	if err := json.Unmarshal([]byte(item.Value), &cfg); err != nil {
		errors.WriteInternal(w, err)
		return
	}
	cfg.Status = req.Status

	raw, err := json.Marshal(cfg)
	if err != nil {
		errors.WriteInternal(w, err)
		return
	}
	if _, err := h.store.SetConfig(r.Context(), storage.KeyEmailIntegration, string(raw)); err != nil {
		errors.WriteInternal(w, err)
		return
	}

	h.alerts.ClearEmailTransport()
	jsonapi.Write(w, http.StatusOK, jsonapi.TypeApp, item.Key, cfg)
}

func (h *AppHandler) DeleteEmailDetails(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteConfig(r.Context(), storage.KeyEmailIntegration); err != nil {
		errors.WriteInternal(w, err)
		return
	}

	h.alerts.ClearEmailTransport()
	jsonapi.Write(w, http.StatusOK, jsonapi.TypeApp, "", messageAttributes{Message: "email integration has been removed"})
}

func (h *AppHandler) TestSlackNotification(w http.ResponseWriter, r *http.Request) {
	result, err := h.alerts.TestSlackAlert(r.Context(), testSlackMessage, "Test Notification")
	if err != nil {
		log.Error().Err(err).Msg("slack test notification failed")
		errors.WriteInternal(w, err)
		return
	}
	jsonapi.Write(w, http.StatusOK, jsonapi.TypeApp, "", successAttributes{Success: result})
}

func (h *AppHandler) TestEmailNotification(w http.ResponseWriter, r *http.Request) {
	result, err := h.alerts.TestEmailAlert(r.Context(), testEmailMessage, "Test Notification")
	if err != nil {
		log.Error().Err(err).Msg("email test notification failed")
		errors.WriteInternal(w, err)
		return
	}
	jsonapi.Write(w, http.StatusOK, jsonapi.TypeApp, "", successAttributes{Success: result})
}

func (h *AppHandler) GetAlertURLDetails(w http.ResponseWriter, r *http.Request) {
	item, err := h.store.GetConfig(r.Context(), storage.KeyAlertURL)
	if err != nil {
		errors.WriteInternal(w, err)
		return
	}
	if item == nil {
		jsonapi.Write(w, http.StatusOK, jsonapi.TypeApp, "", struct{}{})
		return
	}

	var cfg models.AlertURLConfig
	if err := json.Unmarshal([]byte(item.Value), &cfg); err != nil {
		errors.WriteInternal(w, err)
		return
	}
	jsonapi.Write(w, http.StatusOK, jsonapi.TypeApp, item.Key, cfg)
}

func (h *AppHandler) AddAlertURLDetails(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := jsonapi.DecodeAttributes(r, &req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.KindBadRequest, "Invalid request body")
		return
	}

	cfg := models.AlertURLConfig{URL: req.URL}
	raw, err := json.Marshal(cfg)
	if err != nil {
		errors.WriteInternal(w, err)
		return
	}

	item, err := h.store.SetConfig(r.Context(), storage.KeyAlertURL, string(raw))
	if err != nil || item == nil {
		errors.WriteInternal(w, err)
		return
	}
	jsonapi.Write(w, http.StatusOK, jsonapi.TypeApp, item.Key, cfg)
}

type messageAttributes struct {
	Message string `json:"message"`
}

type successAttributes struct {
	Success bool `json:"success"`
}
