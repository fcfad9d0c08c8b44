package v1

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/image-router-api/internal/core/domain"
	"github.com/nulzo/image-router-api/internal/imaging"
	"github.com/nulzo/image-router-api/internal/server/validator"
	"github.com/nulzo/image-router-api/pkg/api"
	"go.uber.org/zap"
)

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// HandleEdit edits an existing image. The source arrives either as a
// multipart file upload or as a URL from a previous generation. An
// optional mask limits the edit to its transparent region for models
// that support mask editing.
func (h *Handler) HandleEdit(c *gin.Context) {
	var req api.EditRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Error(domain.ValidationError(validator.ParseValidationError(err)))
		return
	}
	req.ApplyDefaults()

	imageFile, _ := c.FormFile("image")
	if imageFile == nil && req.ImageURL == "" {
		c.Error(domain.BadRequestError("Either 'image' file or 'image_url' must be provided"))
		return
	}

	var (
		image []byte
		err   error
	)
	if imageFile != nil {
		image, err = readFormFile(imageFile)
	} else {
		image, err = h.store.GetImage(c.Request.Context(), req.ImageURL)
	}
	if err != nil {
		var domErr *domain.Error
		if errors.As(err, &domErr) {
			c.Error(domErr)
			return
		}
		c.Error(domain.BadRequestError("Failed to load image: " + err.Error()))
		return
	}

	var mask []byte
	if maskFile, ferr := c.FormFile("mask"); ferr == nil {
		mask, err = readFormFile(maskFile)
		if err != nil {
			c.Error(domain.BadRequestError("Failed to load mask: " + err.Error()))
			return
		}
	}

	provider := domain.ParseProvider(req.Provider)
	model := req.Model
	if model == "" {
		model = h.resolver.ResolveDefault(provider, true)
	}

	h.logger.Info("Edit request",
		zap.String("provider", string(provider)),
		zap.String("model", model),
		zap.Bool("mask", mask != nil),
	)

	svc, err := h.imaging.ServiceFor(provider)
	if err != nil {
		c.Error(err)
		return
	}

	urls, err := svc.Edit(c.Request.Context(), imaging.EditParams{
		Image:  image,
		Mask:   mask,
		Prompt: req.Prompt,
		Model:  model,
		N:      req.N,
	})
	if err != nil {
		c.Error(err)
		return
	}
	if len(urls) == 0 {
		c.Error(domain.InternalError("No images generated", nil))
		return
	}

	resp, err := h.buildImageResponse(c.Request.Context(), urls, req.ResponseFormat,
		"Edited image", req.Prompt, model, string(provider),
		map[string]interface{}{"edit": true})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
