package api

// ImageResponse is the result of a generate or edit call. Exactly one of
// ImageURL, ImageBase64 or Markdown is populated depending on the
// requested response format.
type ImageResponse struct {
	ImageURL    string `json:"image_url,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
	Markdown    string `json:"markdown,omitempty"`

	Prompt   string `json:"prompt"`
	Model    string `json:"model"`
	Provider string `json:"provider"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ModelCapabilities mirrors the registry's capability flags on the wire.
type ModelCapabilities struct {
	SupportsQuality bool     `json:"supports_quality"`
	AspectRatios    []string `json:"supported_aspect_ratios"`
	MaxBatchSize    int      `json:"max_batch_size"`
	SupportsEditing bool     `json:"supports_editing"`
	EditingType     string   `json:"editing_type"`
}

type Model struct {
	ID           string            `json:"id"`
	Provider     string            `json:"provider"`
	Capabilities ModelCapabilities `json:"capabilities"`
}

type ModelListResponse struct {
	Models []Model `json:"models"`
	Cached bool    `json:"cached"`
	// CacheExpiresIn is nil until the first registry load completes.
	CacheExpiresIn *int `json:"cache_expires_in,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Gateway bool   `json:"gateway"`
	OpenAI  bool   `json:"openai"`
	Gemini  bool   `json:"gemini"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}
