package wsdecksdk

import (
	"time"

	"github.com/google/uuid"
)

type GitSSHKey struct {
	UserID    uuid.UUID `json:"user_id" format:"uuid"`
	CreatedAt time.Time `json:"created_at" format:"date-time"`
	UpdatedAt time.Time `json:"updated_at" format:"date-time"`
	PublicKey string    `json:"public_key"`
}

// AgentGitSSHKey is handed to workspace agents only.
type AgentGitSSHKey struct {
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}
