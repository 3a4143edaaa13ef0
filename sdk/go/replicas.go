package wsdecksdk

import (
	"time"

	"github.com/google/uuid"
)

// Replica is one instance of a highly available deployment.
type Replica struct {
	ID              uuid.UUID `json:"id" format:"uuid"`
	Hostname        string    `json:"hostname"`
	CreatedAt       time.Time `json:"created_at" format:"date-time"`
	RelayAddress    string    `json:"relay_address"`
	RegionID        int32     `json:"region_id"`
	Error           string    `json:"error"`
	DatabaseLatency int32     `json:"database_latency"`
}
