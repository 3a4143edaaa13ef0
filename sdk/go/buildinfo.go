package wsdecksdk

// BuildInfoResponse identifies the running service.
type BuildInfoResponse struct {
	ExternalURL string `json:"external_url"`
	Version     string `json:"version"`
}
