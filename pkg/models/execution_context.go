package models

// UploadType describes how an upload is carried in a request.
type UploadType string

const (
	UploadTypeFile       UploadType = "file"
	UploadTypeAudio      UploadType = "audio"
	UploadTypeURL        UploadType = "url"
	UploadTypeStoredFile UploadType = "stored-file"
)

// StoredFilePrefix marks an upload rewritten to a storage reference.
const StoredFilePrefix = "FILE-STORAGE::"

// Upload is a file attached to a prediction request.
type Upload struct {
	Type UploadType `json:"type" validate:"required,oneof=file audio url stored-file"`
	Name string     `json:"name" validate:"required"`
	Mime string     `json:"mime"`
	// Data is base64 (optionally a data URL) for file and audio uploads.
	Data string `json:"data"`
}

// IsAudio reports whether the upload should be transcribed.
func (u Upload) IsAudio() bool {
	if u.Type == UploadTypeAudio {
		return true
	}

	return len(u.Mime) > 6 && u.Mime[:6] == "audio/"
}

// HistoryMessage is one turn of a conversation supplied with a request.
type HistoryMessage struct {
	Role    MessageRole `json:"role"    validate:"required,oneof=userMessage apiMessage"`
	Content string      `json:"content"`
}

// PredictionRequest is the runtime input of one flow invocation.
type PredictionRequest struct {
	Question       string           `json:"question,omitempty"`
	OverrideConfig map[string]any   `json:"overrideConfig,omitempty"`
	Uploads        []Upload         `json:"uploads,omitempty"   validate:"dive"`
	ChatID         string           `json:"chatId,omitempty"`
	SessionID      string           `json:"sessionId,omitempty"`
	Streaming      bool             `json:"streaming,omitempty"`
	History        []HistoryMessage `json:"history,omitempty"   validate:"dive"`
}

// HasAudio reports whether any upload is audio.
func (r *PredictionRequest) HasAudio() bool {
	for _, u := range r.Uploads {
		if u.IsAudio() {
			return true
		}
	}

	return false
}

// FlowConfig is the read-only context of one invocation.
type FlowConfig struct {
	FlowID         string           `json:"chatflowid"`
	ChatID         string           `json:"chatId"`
	SessionID      string           `json:"sessionId"`
	MessageID      string           `json:"messageId"`
	ChatHistory    []HistoryMessage `json:"chatHistory"`
	OverrideConfig map[string]any   `json:"overrideConfig,omitempty"`
}

// ExecutionResult is the terminal payload returned to the caller.
type ExecutionResult struct {
	ChatID        string         `json:"chatId"`
	SessionID     string         `json:"sessionId,omitempty"`
	MessageID     string         `json:"chatMessageId,omitempty"`
	Text          *string        `json:"text,omitempty"`
	Scene         any            `json:"scene,omitempty"`
	FlowVariables map[string]any `json:"flowVariables,omitempty"`
}
