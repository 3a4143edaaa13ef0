package wsdecksdk

import (
	"encoding/json"
	"time"
)

type AddLicenseRequest struct {
	License string `json:"license"`
}

// License is an uploaded license. Claims are the license JWT claims kept
// verbatim; their shape is owned by the license issuer.
type License struct {
	ID         int32                      `json:"id"`
	UUID       string                     `json:"uuid"`
	UploadedAt time.Time                  `json:"uploaded_at" format:"date-time"`
	Claims     map[string]json.RawMessage `json:"claims"`
}
