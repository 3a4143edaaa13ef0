package wsdecksdk

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type WorkspaceTransition string

const (
	WorkspaceTransitionStart  WorkspaceTransition = "start"
	WorkspaceTransitionStop   WorkspaceTransition = "stop"
	WorkspaceTransitionDelete WorkspaceTransition = "delete"
)

var WorkspaceTransitions = []WorkspaceTransition{
	WorkspaceTransitionDelete,
	WorkspaceTransitionStart,
	WorkspaceTransitionStop,
}

func (t WorkspaceTransition) Valid() bool { return slices.Contains(WorkspaceTransitions, t) }

func (t WorkspaceTransition) MarshalText() ([]byte, error) {
	return marshalEnum("WorkspaceTransition", t, WorkspaceTransitions)
}

func (t *WorkspaceTransition) UnmarshalText(b []byte) error {
	return unmarshalEnum("WorkspaceTransition", b, WorkspaceTransitions, t)
}

type WorkspaceStatus string

const (
	WorkspaceStatusPending   WorkspaceStatus = "pending"
	WorkspaceStatusStarting  WorkspaceStatus = "starting"
	WorkspaceStatusRunning   WorkspaceStatus = "running"
	WorkspaceStatusStopping  WorkspaceStatus = "stopping"
	WorkspaceStatusStopped   WorkspaceStatus = "stopped"
	WorkspaceStatusFailed    WorkspaceStatus = "failed"
	WorkspaceStatusCanceling WorkspaceStatus = "canceling"
	WorkspaceStatusCanceled  WorkspaceStatus = "canceled"
	WorkspaceStatusDeleting  WorkspaceStatus = "deleting"
	WorkspaceStatusDeleted   WorkspaceStatus = "deleted"
)

var WorkspaceStatuses = []WorkspaceStatus{
	WorkspaceStatusCanceled,
	WorkspaceStatusCanceling,
	WorkspaceStatusDeleted,
	WorkspaceStatusDeleting,
	WorkspaceStatusFailed,
	WorkspaceStatusPending,
	WorkspaceStatusRunning,
	WorkspaceStatusStarting,
	WorkspaceStatusStopped,
	WorkspaceStatusStopping,
}

func (s WorkspaceStatus) Valid() bool { return slices.Contains(WorkspaceStatuses, s) }

func (s WorkspaceStatus) MarshalText() ([]byte, error) {
	return marshalEnum("WorkspaceStatus", s, WorkspaceStatuses)
}

func (s *WorkspaceStatus) UnmarshalText(b []byte) error {
	return unmarshalEnum("WorkspaceStatus", b, WorkspaceStatuses, s)
}

// WorkspaceStatusFor derives the user-facing status of a build from its job
// status and transition.
func WorkspaceStatusFor(job ProvisionerJobStatus, transition WorkspaceTransition) WorkspaceStatus {
	switch job {
	case ProvisionerJobPending:
		return WorkspaceStatusPending
	case ProvisionerJobRunning:
		switch transition {
		case WorkspaceTransitionStop:
			return WorkspaceStatusStopping
		case WorkspaceTransitionDelete:
			return WorkspaceStatusDeleting
		default:
			return WorkspaceStatusStarting
		}
	case ProvisionerJobSucceeded:
		switch transition {
		case WorkspaceTransitionStop:
			return WorkspaceStatusStopped
		case WorkspaceTransitionDelete:
			return WorkspaceStatusDeleted
		default:
			return WorkspaceStatusRunning
		}
	case ProvisionerJobCanceling:
		return WorkspaceStatusCanceling
	case ProvisionerJobCanceled:
		return WorkspaceStatusCanceled
	default:
		return WorkspaceStatusFailed
	}
}

type BuildReason string

const (
	BuildReasonInitiator BuildReason = "initiator"
	BuildReasonAutostart BuildReason = "autostart"
	BuildReasonAutostop  BuildReason = "autostop"
)

var BuildReasons = []BuildReason{BuildReasonAutostart, BuildReasonAutostop, BuildReasonInitiator}

func (r BuildReason) Valid() bool { return slices.Contains(BuildReasons, r) }

func (r BuildReason) MarshalText() ([]byte, error) {
	return marshalEnum("BuildReason", r, BuildReasons)
}

func (r *BuildReason) UnmarshalText(b []byte) error {
	return unmarshalEnum("BuildReason", b, BuildReasons, r)
}

// WorkspaceBuild is one transition of a workspace. Deadline is absent when the
// workspace has no TTL.
type WorkspaceBuild struct {
	ID                 uuid.UUID           `json:"id" format:"uuid"`
	CreatedAt          time.Time           `json:"created_at" format:"date-time"`
	UpdatedAt          time.Time           `json:"updated_at" format:"date-time"`
	WorkspaceID        uuid.UUID           `json:"workspace_id" format:"uuid"`
	WorkspaceName      string              `json:"workspace_name"`
	WorkspaceOwnerID   uuid.UUID           `json:"workspace_owner_id" format:"uuid"`
	WorkspaceOwnerName string              `json:"workspace_owner_name"`
	TemplateVersionID  uuid.UUID           `json:"template_version_id" format:"uuid"`
	BuildNumber        int32               `json:"build_number"`
	Transition         WorkspaceTransition `json:"transition"`
	InitiatorID        uuid.UUID           `json:"initiator_id" format:"uuid"`
	InitiatorUsername  string              `json:"initiator_name"`
	Job                ProvisionerJob      `json:"job"`
	Reason             BuildReason         `json:"reason"`
	Resources          []WorkspaceResource `json:"resources"`
	Deadline           *time.Time          `json:"deadline,omitempty" format:"date-time"`
	Status             WorkspaceStatus     `json:"status"`
	DailyCost          int32               `json:"daily_cost"`
}

type WorkspaceResource struct {
	ID         uuid.UUID                   `json:"id" format:"uuid"`
	CreatedAt  time.Time                   `json:"created_at" format:"date-time"`
	JobID      uuid.UUID                   `json:"job_id" format:"uuid"`
	Transition WorkspaceTransition         `json:"workspace_transition"`
	Type       string                      `json:"type"`
	Name       string                      `json:"name"`
	Hide       bool                        `json:"hide"`
	Icon       string                      `json:"icon"`
	Agents     []WorkspaceAgent            `json:"agents,omitzero"`
	Metadata   []WorkspaceResourceMetadata `json:"metadata,omitzero"`
	DailyCost  int32                       `json:"daily_cost"`
}

type WorkspaceResourceMetadata struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	Sensitive bool   `json:"sensitive"`
}

// CreateWorkspaceBuildRequest starts a transition. TemplateVersionID defaults to
// the version of the previous build.
type CreateWorkspaceBuildRequest struct {
	TemplateVersionID *uuid.UUID               `json:"template_version_id,omitempty" format:"uuid"`
	Transition        WorkspaceTransition      `json:"transition"`
	DryRun            *bool                    `json:"dry_run,omitempty"`
	ProvisionerState  *string                  `json:"state,omitempty"`
	Orphan            *bool                    `json:"orphan,omitempty"`
	ParameterValues   []CreateParameterRequest `json:"parameter_values,omitzero"`
}
