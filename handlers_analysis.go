package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"pasturewatch/analysis"
	"pasturewatch/imagery"
	"pasturewatch/models"
	"pasturewatch/store"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	maxAOIBytes  = 4 << 20
	defaultLimit = 100
	maxLimit     = 100
)

// handleCreateAnalysis runs an analysis for the posted GeoJSON and stores the report.
func (a *App) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	uid := mustUserID(r)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAOIBytes))
	if err != nil {
		http.Error(w, "body too large or unreadable", http.StatusRequestEntityTooLarge)
		return
	}
	aoi, err := analysis.ParseAOI(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rep, err := a.analyzer.Run(r.Context(), aoi)
	switch {
	case errors.Is(err, imagery.ErrNoImagery):
		http.Error(w, imagery.ErrNoImagery.Error(), http.StatusBadRequest)
		return
	case err != nil:
		a.logger.Error("analysis failed", "owner", uid.Hex(), "error", err)
		http.Error(w, "analysis failed", http.StatusInternalServerError)
		return
	}
	rep.OwnerID = uid

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := a.reports.InsertReport(ctx, rep); err != nil {
		a.logger.Error("store report", "owner", uid.Hex(), "error", err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	a.logger.Info("analysis stored",
		"report", rep.ID.Hex(),
		"owner", uid.Hex(),
		"area_ha", rep.AreaHectares,
		"ai_status", rep.NarrativeStatus,
	)
	writeJSON(w, http.StatusCreated, rep)
}

// handleListAnalyses lists the caller's reports, newest first.
func (a *App) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	uid := mustUserID(r)

	skip, err := queryInt(r, "skip", 0)
	if err != nil || skip < 0 {
		http.Error(w, "invalid skip", http.StatusBadRequest)
		return
	}
	limit, err := queryInt(r, "limit", defaultLimit)
	if err != nil || limit <= 0 {
		http.Error(w, "invalid limit", http.StatusBadRequest)
		return
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	out, err := a.reports.ReportsByOwner(ctx, uid, skip, limit)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *App) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	rep, ok := a.ownedReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// handleDownloadAnalysis returns the stored HTML document as an attachment.
func (a *App) handleDownloadAnalysis(w http.ResponseWriter, r *http.Request) {
	rep, ok := a.ownedReport(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=pasture_report_%s.html", rep.ID.Hex()))
	_, _ = io.WriteString(w, rep.HTML)
}

func (a *App) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	rep, ok := a.ownedReport(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := a.reports.DeleteReport(ctx, rep.ID, rep.OwnerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedReport loads the {id} report and writes 404 or 403 when it is
// missing or belongs to someone else.
func (a *App) ownedReport(w http.ResponseWriter, r *http.Request) (*models.AnalysisReport, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return nil, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rep, err := a.reports.ReportByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return nil, false
		}
		http.Error(w, "db error", http.StatusInternalServerError)
		return nil, false
	}
	if rep.OwnerID != mustUserID(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return nil, false
	}
	return rep, true
}

func queryInt(r *http.Request, key string, def int64) (int64, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
