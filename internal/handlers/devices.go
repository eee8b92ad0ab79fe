package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/tagwatch/tagwatchgo/internal/models"
	"github.com/tagwatch/tagwatchgo/internal/services/printer"
)

// listDevices returns all registered devices
func (r *Router) listDevices(w http.ResponseWriter, req *http.Request) {
	devices, err := r.reg.ListDevices(req.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch devices")
		return
	}
	respondJSON(w, http.StatusOK, devices)
}

// createDevice registers a new device
func (r *Router) createDevice(w http.ResponseWriter, req *http.Request) {
	var device models.Device
	if err := json.NewDecoder(req.Body).Decode(&device); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if strings.TrimSpace(device.TagID) == "" {
		respondError(w, http.StatusBadRequest, "tagId is required")
		return
	}
	if err := r.reg.CreateDevice(req.Context(), &device); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create device")
		return
	}
	respondJSON(w, http.StatusCreated, device)
}

// getDevice returns a single device
func (r *Router) getDevice(w http.ResponseWriter, req *http.Request) {
	device, err := r.reg.GetDevice(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch device")
		return
	}
	if device == nil {
		respondError(w, http.StatusNotFound, "Device not found")
		return
	}
	respondJSON(w, http.StatusOK, device)
}

// deleteDevice removes a device; its ledger row cascades away with it
func (r *Router) deleteDevice(w http.ResponseWriter, req *http.Request) {
	err := r.reg.DeleteDevice(req.Context(), mux.Vars(req)["id"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, "Device not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete device")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// printDeviceLabels renders a QR label sheet for all devices
func (r *Router) printDeviceLabels(w http.ResponseWriter, req *http.Request) {
	cfg := printer.DefaultSheetConfig()
	if req.ContentLength > 0 {
		if err := json.NewDecoder(req.Body).Decode(&cfg); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid layout payload")
			return
		}
	}

	devices, err := r.reg.ListDevices(req.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch devices")
		return
	}

	pdf, err := printer.GenerateTagLabelsPDF(devices, cfg)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="tag-labels.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
