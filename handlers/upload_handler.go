package handlers

import (
	"github.com/anjiri1684/classroom/dto"
	"github.com/gofiber/fiber/v2"
)

const uploadFolder = "classroom_uploads"

// GenerateUploadSignature creates a signature for a direct browser upload.
func (h *Handler) GenerateUploadSignature(c *fiber.Ctx) error {
	if h.uploads == nil {
		return ErrUploadsDisabled
	}
	sig, err := h.uploads.SignUpload(uploadFolder)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("", dto.UploadSignatureResponse{
		Signature: sig.Signature,
		Timestamp: sig.Timestamp,
		APIKey:    sig.APIKey,
		CloudName: sig.CloudName,
		Folder:    sig.Folder,
	}))
}
