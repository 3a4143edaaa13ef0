package wsdecksdk

// Response is the envelope the service uses for messages and failures.
type Response struct {
	Message     string            `json:"message"`
	Detail      *string           `json:"detail,omitempty"`
	Validations []ValidationError `json:"validations,omitzero"`
}

// ValidationError is a server-declared problem with a single request field.
type ValidationError struct {
	Field  string `json:"field"`
	Detail string `json:"detail"`
}
