package wsdecksdk

import "github.com/google/uuid"

const (
	ContentTypeTar  = "application/x-tar"
	ContentTypeYAML = "application/yaml"
)

// UploadResponse names an uploaded file. The key is "hash" on the wire for
// historical reasons; the value is the file id.
type UploadResponse struct {
	ID uuid.UUID `json:"hash" format:"uuid"`
}
