package wsdecksdk

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type WorkspaceAgentStatus string

const (
	WorkspaceAgentConnecting   WorkspaceAgentStatus = "connecting"
	WorkspaceAgentConnected    WorkspaceAgentStatus = "connected"
	WorkspaceAgentDisconnected WorkspaceAgentStatus = "disconnected"
	WorkspaceAgentTimeout      WorkspaceAgentStatus = "timeout"
)

var WorkspaceAgentStatuses = []WorkspaceAgentStatus{
	WorkspaceAgentConnected,
	WorkspaceAgentConnecting,
	WorkspaceAgentDisconnected,
	WorkspaceAgentTimeout,
}

func (s WorkspaceAgentStatus) Valid() bool { return slices.Contains(WorkspaceAgentStatuses, s) }

func (s WorkspaceAgentStatus) MarshalText() ([]byte, error) {
	return marshalEnum("WorkspaceAgentStatus", s, WorkspaceAgentStatuses)
}

func (s *WorkspaceAgentStatus) UnmarshalText(b []byte) error {
	return unmarshalEnum("WorkspaceAgentStatus", b, WorkspaceAgentStatuses, s)
}

type WorkspaceAgent struct {
	ID                       uuid.UUID             `json:"id" format:"uuid"`
	CreatedAt                time.Time             `json:"created_at" format:"date-time"`
	UpdatedAt                time.Time             `json:"updated_at" format:"date-time"`
	FirstConnectedAt         *time.Time            `json:"first_connected_at,omitempty" format:"date-time"`
	LastConnectedAt          *time.Time            `json:"last_connected_at,omitempty" format:"date-time"`
	DisconnectedAt           *time.Time            `json:"disconnected_at,omitempty" format:"date-time"`
	Status                   WorkspaceAgentStatus  `json:"status"`
	Name                     string                `json:"name"`
	ResourceID               uuid.UUID             `json:"resource_id" format:"uuid"`
	InstanceID               *string               `json:"instance_id,omitempty"`
	Architecture             string                `json:"architecture"`
	EnvironmentVariables     map[string]string     `json:"environment_variables"`
	OperatingSystem          string                `json:"operating_system"`
	StartupScript            *string               `json:"startup_script,omitempty"`
	Directory                *string               `json:"directory,omitempty"`
	Version                  string                `json:"version"`
	Apps                     []WorkspaceApp        `json:"apps"`
	DERPLatency              map[string]DERPRegion `json:"latency,omitzero"`
	ConnectionTimeoutSeconds int32                 `json:"connection_timeout_seconds"`
	TroubleshootingURL       string                `json:"troubleshooting_url"`
}

type DERPRegion struct {
	Preferred           bool    `json:"preferred"`
	LatencyMilliseconds float64 `json:"latency_ms"`
}

type WorkspaceAgentGitAuthResponse struct {
	Username string `json:"username"`
	Password string `json:"password"`
	URL      string `json:"url"`
}

type WorkspaceAgentInstanceMetadata struct {
	JailOrchestrator   string `json:"jail_orchestrator"`
	OperatingSystem    string `json:"operating_system"`
	Platform           string `json:"platform"`
	PlatformFamily     string `json:"platform_family"`
	KernelVersion      string `json:"kernel_version"`
	KernelArchitecture string `json:"kernel_architecture"`
	Cloud              string `json:"cloud"`
	Jail               string `json:"jail"`
	VNC                bool   `json:"vnc"`
}

type WorkspaceAgentResourceMetadata struct {
	MemoryTotal uint64  `json:"memory_total"`
	DiskTotal   uint64  `json:"disk_total"`
	CPUCores    uint64  `json:"cpu_cores"`
	CPUModel    string  `json:"cpu_model"`
	CPUMhz      float64 `json:"cpu_mhz"`
}

type AzureInstanceIdentityToken struct {
	Signature string `json:"signature"`
	Encoding  string `json:"encoding"`
}
