package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Kauanrodrigues01/academy/internal/flash"
	"github.com/Kauanrodrigues01/academy/internal/report"
	"github.com/Kauanrodrigues01/academy/internal/service"
	"github.com/Kauanrodrigues01/academy/internal/validate"
)

type ReportHandler struct {
	reports *service.Reports
	logger  *slog.Logger
}

func NewReportHandler(svc *service.Services, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{reports: svc.Reports, logger: logger}
}

func (h *ReportHandler) General(w http.ResponseWriter, r *http.Request) {
	g, err := h.reports.General(r.Context())
	if err != nil {
		h.failed(w, r, "general report data", err)
		return
	}
	var buf bytes.Buffer
	if err := report.WriteGeneral(&buf, g); err != nil {
		h.failed(w, r, "general report pdf", err)
		return
	}
	h.send(w, report.GeneralFilename(h.reports.Today()), &buf)
}

// Daily renders the report of ?date=YYYY-MM-DD, defaulting to today. Future
// dates are refused.
func (h *ReportHandler) Daily(w http.ResponseWriter, r *http.Request) {
	today := h.reports.Today()
	day := today
	if s := r.URL.Query().Get("date"); s != "" {
		d, err := validate.ParseDate(s)
		if err != nil || d.After(today) {
			redirect(w, r, flash.Error, "Data inválida para o relatório.", "/finance")
			return
		}
		day = d
	}

	d, err := h.reports.Daily(r.Context(), day)
	if err != nil {
		h.failed(w, r, "daily report data", err)
		return
	}
	var buf bytes.Buffer
	if err := report.WriteDaily(&buf, d); err != nil {
		h.failed(w, r, "daily report pdf", err)
		return
	}
	h.send(w, report.DailyFilename(day), &buf)
}

func (h *ReportHandler) send(w http.ResponseWriter, filename string, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func (h *ReportHandler) failed(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg, "error", err)
	redirect(w, r, flash.Error, "Não foi possível gerar o relatório.", "/finance")
}
