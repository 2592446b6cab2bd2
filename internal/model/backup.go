package model

import "time"

type BackupStatus string

const (
	BackupStatusPending   BackupStatus = "pending"
	BackupStatusUploading BackupStatus = "uploading"
	BackupStatusCompleted BackupStatus = "completed"
	BackupStatusFailed    BackupStatus = "failed"
)

// Label is the status as shown on the backups page.
func (s BackupStatus) Label() string {
	switch s {
	case BackupStatusPending:
		return "Na fila"
	case BackupStatusUploading:
		return "Enviando"
	case BackupStatusCompleted:
		return "Concluído"
	case BackupStatusFailed:
		return "Falhou"
	}
	return string(s)
}

// Backup is one snapshot upload. SizeBytes is the stored object size, after
// encryption when a passphrase is configured.
type Backup struct {
	ID           int64        `json:"id"`
	Filename     string       `json:"filename"`
	S3Key        string       `json:"s3_key"`
	SizeBytes    int64        `json:"size_bytes"`
	Status       BackupStatus `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
	StartedAt    *time.Time   `json:"started_at,omitempty"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
