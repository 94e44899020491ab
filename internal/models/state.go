package models

// UIState is the observable state rendered by the terminal UI and the
// control API. Only presentation.Sink writes it.
type UIState struct {
	Status        string `json:"status"`
	Timer         string `json:"timer"`
	Transcript    string `json:"transcript"`
	Answer        string `json:"answer"`
	AudioSource   string `json:"audioSource,omitempty"`
	RecordEnabled bool   `json:"recordEnabled"`
	StopEnabled   bool   `json:"stopEnabled"`
}
