package models

// ProcessingResult is the success body returned by the processing service.
// Missing keys decode to empty strings.
type ProcessingResult struct {
	Transcript string `json:"transcript"`
	Answer     string `json:"answer"`
	AudioURL   string `json:"audio_url,omitempty"` // path-absolute, relative to the base address
}

// HasAudio reports whether the service returned a synthesized reply.
func (r ProcessingResult) HasAudio() bool {
	return r.AudioURL != ""
}
