package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/fedquery/gateway/types"
)

type settingsSavedResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HandlePostSettings upserts a user's Settings document.
func (g *Gateway) HandlePostSettings(w http.ResponseWriter, r *http.Request) {
	userID := queryUserID(r)
	if userID == "" {
		WriteErrorMessage(w, types.ErrInvalidInput, "user_id query parameter is required", g.deps.Logger)
		return
	}
	if !ValidateContentType(w, r, g.deps.Logger) {
		return
	}

	var settings types.Settings
	if err := DecodeJSONBody(w, r, &settings, g.deps.Logger); err != nil {
		return
	}

	if err := g.deps.Store.PutSettings(r.Context(), userID, settings); err != nil {
		WriteErrorMessage(w, types.ErrInternal, "failed to save settings", g.deps.Logger)
		return
	}

	WriteJSON(w, http.StatusOK, settingsSavedResponse{Status: "ok", Message: "settings saved"})
}

// HandleGetSettings fetches a user's stored Settings, or null if none
// have been saved yet.
func (g *Gateway) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	if userID == "" {
		WriteErrorMessage(w, types.ErrInvalidInput, "user_id path parameter is required", g.deps.Logger)
		return
	}

	settings, found, err := g.deps.Store.GetSettings(r.Context(), userID)
	if err != nil {
		WriteErrorMessage(w, types.ErrInternal, "failed to load settings", g.deps.Logger)
		return
	}
	if !found {
		WriteJSON(w, http.StatusOK, json.RawMessage("null"))
		return
	}
	WriteJSON(w, http.StatusOK, settings)
}
