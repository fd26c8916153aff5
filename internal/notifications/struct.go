package notifications

// Webhook carries the alerting endpoint configuration. An empty URL
// disables notifications entirely.
type Webhook struct {
	URL      string
	Username string
	Password string
}

// WorkflowFailure is the alert payload posted when a workflow step
// fails against the ZFS backend.
type WorkflowFailure struct {
	Service  string `json:"service"`
	Workflow string `json:"workflow"`
	Dataset  string `json:"dataset"`
	Snapshot string `json:"snapshot,omitempty"`
	Message  string `json:"message"`
}
