package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/expense-analyzer/internal/api/middleware"
	"github.com/dvloznov/expense-analyzer/internal/domain"
	"github.com/dvloznov/expense-analyzer/internal/ledger"
	"github.com/dvloznov/expense-analyzer/internal/sheets"
)

// SettingsHandler handles tag lists, the user profile and the sheets config.
type SettingsHandler struct {
	repo *ledger.Repository
	log  zerolog.Logger
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(repo *ledger.Repository, log zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{repo: repo, log: log}
}

type tagsBody struct {
	Tags []string `json:"tags"`
}

// ListTags handles GET /api/tags. The list holds saved tags plus every tag
// used by a transaction.
func (h *SettingsHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.repo.AllTags(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list tags")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tagsBody{Tags: tags})
}

// SaveTags handles PUT /api/tags
func (h *SettingsHandler) SaveTags(w http.ResponseWriter, r *http.Request) {
	var body tagsBody
	if err := decodeJSON(w, r, &body); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.repo.SaveTags(r.Context(), body.Tags); err != nil {
		writeServiceError(w, h.log, err, "Failed to save tags")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, body)
}

// ListOfficialTags handles GET /api/tags/official
func (h *SettingsHandler) ListOfficialTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.repo.OfficialTags(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list official tags")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tagsBody{Tags: tags})
}

// SaveOfficialTags handles PUT /api/tags/official
func (h *SettingsHandler) SaveOfficialTags(w http.ResponseWriter, r *http.Request) {
	var body tagsBody
	if err := decodeJSON(w, r, &body); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.repo.SaveOfficialTags(r.Context(), body.Tags); err != nil {
		writeServiceError(w, h.log, err, "Failed to save official tags")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, body)
}

// GetProfile handles GET /api/profile. Missing profiles are returned as null.
func (h *SettingsHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.repo.Profile(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load profile")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, p)
}

// SaveProfile handles PUT /api/profile
func (h *SettingsHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var p domain.UserProfile
	if err := decodeJSON(w, r, &p); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.repo.SaveProfile(r.Context(), p); err != nil {
		writeServiceError(w, h.log, err, "Failed to save profile")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, p)
}

// GetSheetsConfig handles GET /api/settings/sheets. The private key is never
// sent back, only whether one is stored.
func (h *SettingsHandler) GetSheetsConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.repo.SheetsConfig(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load sheets config")
		return
	}
	if cfg == nil {
		cfg = &domain.SheetsConfig{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sheetId":       cfg.SheetID,
		"clientEmail":   cfg.ClientEmail,
		"hasPrivateKey": cfg.PrivateKey != "",
	})
}

// SaveSheetsConfig handles PUT /api/settings/sheets
func (h *SettingsHandler) SaveSheetsConfig(w http.ResponseWriter, r *http.Request) {
	var cfg domain.SheetsConfig
	if err := decodeJSON(w, r, &cfg); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := sheets.ValidateConfig(cfg); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "sheetId, clientEmail and privateKey are required")
		return
	}
	if err := h.repo.SaveSheetsConfig(r.Context(), cfg); err != nil {
		writeServiceError(w, h.log, err, "Failed to save sheets config")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
