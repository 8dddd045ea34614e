package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"crowdmap/models/report"
	services "crowdmap/service"
)

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// CreateReport handles POST /v1/reports. A repeated submission by the same
// user for the same site updates their report and answers 200 instead of 201.
func (h *ReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "submit")
	if !ok {
		return
	}
	var in services.ReportInput
	if !decodeBody(w, r, &in) {
		return
	}

	saved, created, err := h.reportService.SubmitReport(r.Context(), userID, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, SuccessResponse{Success: true, Data: saved})
}

// UpdateReport handles PATCH /v1/reports/{id}.
func (h *ReportHandler) UpdateReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "update")
	if !ok {
		return
	}
	var in services.ReportInput
	if !decodeBody(w, r, &in) {
		return
	}

	updated, err := h.reportService.UpdateReport(r.Context(), userID, mux.Vars(r)[ID_PATH_VAR], in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: updated})
}

// DeleteReport handles DELETE /v1/reports/{id}.
func (h *ReportHandler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "delete")
	if !ok {
		return
	}
	if err := h.reportService.DeleteReport(r.Context(), userID, mux.Vars(r)[ID_PATH_VAR]); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// MyReportsResponse is the caller's report history with its summary.
type MyReportsResponse struct {
	Reports    []report.Report         `json:"reports"`
	Statistics services.UserStatistics `json:"statistics"`
}

// GetMyReports handles GET /v1/reports/mine, newest first.
func (h *ReportHandler) GetMyReports(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "view")
	if !ok {
		return
	}
	reports, err := h.reportService.ListUserReports(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: MyReportsResponse{
		Reports:    reports,
		Statistics: services.ComputeUserStatistics(reports),
	}})
}

// GetMySiteReport handles GET /v1/sites/{id}/reports/mine.
func (h *ReportHandler) GetMySiteReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "view")
	if !ok {
		return
	}
	mine, err := h.reportService.GetUserReportForSite(r.Context(), userID, mux.Vars(r)[ID_PATH_VAR])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: mine})
}

func requireUser(w http.ResponseWriter, r *http.Request, action string) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get(USER_ID_HEADER))
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized - must be logged in to "+action+" a report")
		return "", false
	}
	return userID, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}
