package wsdecksdk

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type LogSource string

const (
	LogSourceProvisionerDaemon LogSource = "provisioner_daemon"
	LogSourceProvisioner       LogSource = "provisioner"
)

var LogSources = []LogSource{LogSourceProvisioner, LogSourceProvisionerDaemon}

func (s LogSource) Valid() bool { return slices.Contains(LogSources, s) }

func (s LogSource) MarshalText() ([]byte, error) { return marshalEnum("LogSource", s, LogSources) }

func (s *LogSource) UnmarshalText(b []byte) error {
	return unmarshalEnum("LogSource", b, LogSources, s)
}

type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var LogLevels = []LogLevel{LogLevelDebug, LogLevelError, LogLevelInfo, LogLevelTrace, LogLevelWarn}

func (l LogLevel) Valid() bool { return slices.Contains(LogLevels, l) }

func (l LogLevel) MarshalText() ([]byte, error) { return marshalEnum("LogLevel", l, LogLevels) }

func (l *LogLevel) UnmarshalText(b []byte) error {
	return unmarshalEnum("LogLevel", b, LogLevels, l)
}

// ProvisionerJobStatus is the lifecycle of a provisioner job.
type ProvisionerJobStatus string

const (
	ProvisionerJobPending   ProvisionerJobStatus = "pending"
	ProvisionerJobRunning   ProvisionerJobStatus = "running"
	ProvisionerJobSucceeded ProvisionerJobStatus = "succeeded"
	ProvisionerJobCanceling ProvisionerJobStatus = "canceling"
	ProvisionerJobCanceled  ProvisionerJobStatus = "canceled"
	ProvisionerJobFailed    ProvisionerJobStatus = "failed"
)

var ProvisionerJobStatuses = []ProvisionerJobStatus{
	ProvisionerJobPending,
	ProvisionerJobRunning,
	ProvisionerJobSucceeded,
	ProvisionerJobFailed,
	ProvisionerJobCanceling,
	ProvisionerJobCanceled,
}

func (s ProvisionerJobStatus) Valid() bool { return slices.Contains(ProvisionerJobStatuses, s) }

func (s ProvisionerJobStatus) MarshalText() ([]byte, error) {
	return marshalEnum("ProvisionerJobStatus", s, ProvisionerJobStatuses)
}

func (s *ProvisionerJobStatus) UnmarshalText(b []byte) error {
	return unmarshalEnum("ProvisionerJobStatus", b, ProvisionerJobStatuses, s)
}

// Terminal reports whether the job can no longer change status.
func (s ProvisionerJobStatus) Terminal() bool {
	switch s {
	case ProvisionerJobSucceeded, ProvisionerJobFailed, ProvisionerJobCanceled:
		return true
	}
	return false
}

type ProvisionerDaemon struct {
	ID           uuid.UUID         `json:"id" format:"uuid"`
	CreatedAt    time.Time         `json:"created_at" format:"date-time"`
	UpdatedAt    *time.Time        `json:"updated_at,omitempty" format:"date-time"`
	Name         string            `json:"name"`
	Provisioners []ProvisionerType `json:"provisioners"`
	Tags         map[string]string `json:"tags"`
}

type ProvisionerJob struct {
	ID          uuid.UUID            `json:"id" format:"uuid"`
	CreatedAt   time.Time            `json:"created_at" format:"date-time"`
	StartedAt   *time.Time           `json:"started_at,omitempty" format:"date-time"`
	CompletedAt *time.Time           `json:"completed_at,omitempty" format:"date-time"`
	CanceledAt  *time.Time           `json:"canceled_at,omitempty" format:"date-time"`
	Error       *string              `json:"error,omitempty"`
	Status      ProvisionerJobStatus `json:"status"`
	WorkerID    *uuid.UUID           `json:"worker_id,omitempty" format:"uuid"`
	FileID      uuid.UUID            `json:"file_id" format:"uuid"`
	Tags        map[string]string    `json:"tags"`
}

type ProvisionerJobLog struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at" format:"date-time"`
	Source    LogSource `json:"log_source"`
	Level     LogLevel  `json:"log_level"`
	Stage     string    `json:"stage"`
	Output    string    `json:"output"`
}
