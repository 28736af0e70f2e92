package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// WebhookAck is the fixed acknowledgement body returned to webhook senders
// once their signature has been verified.
type WebhookAck struct {
	Received bool `json:"received"`
}
