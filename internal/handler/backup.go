package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Kauanrodrigues01/academy/internal/backup"
	"github.com/Kauanrodrigues01/academy/internal/flash"
	"github.com/Kauanrodrigues01/academy/internal/model"
)

const backupRows = 20

// Backups is the part of the backup manager the admin page uses.
type Backups interface {
	Status() backup.Status
	List(limit int) ([]model.Backup, error)
	Run(ctx context.Context) (*model.Backup, error)
}

type BackupHandler struct {
	views   *Views
	backups Backups
	logger  *slog.Logger
}

func NewBackupHandler(views *Views, backups Backups, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{views: views, backups: backups, logger: logger}
}

func (h *BackupHandler) Page(w http.ResponseWriter, r *http.Request) {
	list, err := h.backups.List(backupRows)
	if err != nil {
		h.views.serverError(w, r, "list backups", err)
		return
	}
	data := h.views.page(w, r, "Backups", "backups")
	data["Status"] = h.backups.Status()
	data["Backups"] = list
	h.views.render(w, r, http.StatusOK, "backups.html", data)
}

// Run takes a backup right away. It runs within the request so the admin
// sees the outcome on the next page.
func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	b, err := h.backups.Run(r.Context())
	switch {
	case errors.Is(err, backup.ErrDisabled):
		redirect(w, r, flash.Error, "Backup não configurado.", "/admin/backups")
	case errors.Is(err, backup.ErrRunning):
		redirect(w, r, flash.Info, "Já existe um backup em andamento.", "/admin/backups")
	case err != nil:
		h.logger.Error("manual backup", "error", err)
		redirect(w, r, flash.Error, "O backup falhou. Veja os detalhes abaixo.", "/admin/backups")
	default:
		redirect(w, r, flash.Success, "Backup "+b.Filename+" concluído.", "/admin/backups")
	}
}
