package models

// Event types published for submission outcomes.
const (
	EventSubmissionSucceeded = "voicequery.submission.succeeded"
	EventSubmissionFailed    = "voicequery.submission.failed"
)

// SubmissionSucceeded is published after a result has been applied to the UI.
type SubmissionSucceeded struct {
	EventType    string `json:"eventType"`
	EventID      string `json:"eventId"`
	AttemptID    uint64 `json:"attemptId"`
	Source       string `json:"source"`
	MediaType    string `json:"mediaType"`
	PayloadBytes int    `json:"payloadBytes"`
	Transcript   string `json:"transcript"`
	Answer       string `json:"answer"`
	AudioURL     string `json:"audioUrl,omitempty"`
	LatencyMs    int64  `json:"latencyMs"`
	Timestamp    int64  `json:"timestamp"`
}

// SubmissionFailed is published after a failure has been applied to the UI.
type SubmissionFailed struct {
	EventType    string `json:"eventType"`
	EventID      string `json:"eventId"`
	AttemptID    uint64 `json:"attemptId"`
	Source       string `json:"source"`
	MediaType    string `json:"mediaType"`
	PayloadBytes int    `json:"payloadBytes"`
	StatusCode   int    `json:"statusCode,omitempty"`
	Kind         string `json:"kind"` // status, network or malformed
	Error        string `json:"error"`
	LatencyMs    int64  `json:"latencyMs"`
	Timestamp    int64  `json:"timestamp"`
}
