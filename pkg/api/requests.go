package api

// GenerateRequest is the JSON body for image generation.
type GenerateRequest struct {
	// Detailed description of the image to generate.
	Prompt string `json:"prompt" binding:"required,min=1,max=4000"`

	// Provider routes the request: "litellm" (the unified gateway,
	// default) or a direct vendor ("openai", "gemini").
	Provider string `json:"provider" binding:"omitempty,oneof=litellm openai gemini"`

	// Model id; the server resolves a default when empty.
	Model string `json:"model,omitempty"`

	AspectRatio string `json:"aspect_ratio" binding:"omitempty,oneof=1:1 16:9 9:16 4:3 3:4"`

	// Quality is honored only by models that declare quality support.
	Quality string `json:"quality" binding:"omitempty,oneof=standard hd"`

	// Number of images (1-4). Some models only support n=1.
	N int `json:"n" binding:"omitempty,min=1,max=4"`

	ResponseFormat string `json:"response_format" binding:"omitempty,oneof=url base64 markdown"`
}

// ApplyDefaults fills the optional fields the binding layer leaves empty.
func (r *GenerateRequest) ApplyDefaults() {
	if r.Provider == "" {
		r.Provider = "litellm"
	}
	if r.AspectRatio == "" {
		r.AspectRatio = "1:1"
	}
	if r.Quality == "" {
		r.Quality = "standard"
	}
	if r.N == 0 {
		r.N = 1
	}
	if r.ResponseFormat == "" {
		r.ResponseFormat = "url"
	}
}

// EditRequest is the multipart form for image editing. The image arrives
// either as a file upload (handled separately by the handler) or as a URL
// to a previously generated image.
type EditRequest struct {
	Prompt         string `form:"prompt" binding:"required,min=1,max=4000"`
	Provider       string `form:"provider" binding:"omitempty,oneof=litellm openai gemini"`
	Model          string `form:"model"`
	ImageURL       string `form:"image_url"`
	N              int    `form:"n" binding:"omitempty,min=1,max=4"`
	ResponseFormat string `form:"response_format" binding:"omitempty,oneof=url base64 markdown"`
}

func (r *EditRequest) ApplyDefaults() {
	if r.Provider == "" {
		r.Provider = "litellm"
	}
	if r.N == 0 {
		r.N = 1
	}
	if r.ResponseFormat == "" {
		r.ResponseFormat = "url"
	}
}

// RefreshRequest forces a model registry reload.
type RefreshRequest struct {
	Force bool `json:"force"`
}
