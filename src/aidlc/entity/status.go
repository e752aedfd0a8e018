package entity

// Alignment of the status indicator.
type Alignment string

// AlignmentLeft places the indicator on the left of the status bar.
const AlignmentLeft Alignment = "left"

// StatusIndicator is the readiness widget shown while a Session is ready.
type StatusIndicator struct {
	Alignment Alignment `json:"alignment" yaml:"alignment"`
	Text      string    `json:"text" yaml:"text"`
	Tooltip   string    `json:"tooltip" yaml:"tooltip"`
	Command   string    `json:"command" yaml:"command"`
	Visible   bool      `json:"visible" yaml:"-"`
}
