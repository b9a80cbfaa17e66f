package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/pixido-dev/pixido/internal/models"
	"github.com/pixido-dev/pixido/internal/tasks"
)

// ImageDetail represents an image returned in API responses
type ImageDetail struct {
	ID         string `json:"id"`
	User       string `json:"user"`
	Filename   string `json:"filename"`
	Label      string `json:"label,omitempty"`
	ImageURL   string `json:"image_url"`
	Indexed    bool   `json:"indexed"`
	UploadedAt string `json:"uploaded_at"`
}

func (s *Server) imageDetail(c *gin.Context, img *models.Image) ImageDetail {
	username := ""
	if img.User != nil {
		username = img.User.Username
	}
	return ImageDetail{
		ID:         img.ID,
		User:       username,
		Filename:   img.Filename,
		Label:      img.Label,
		ImageURL:   absoluteMediaURL(c, img.Path),
		Indexed:    img.Indexed,
		UploadedAt: img.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// absoluteMediaURL builds a full URL for a stored image path
func absoluteMediaURL(c *gin.Context, path string) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/media/%s", scheme, c.Request.Host, path)
}

// @Summary Upload image
// @Description Store an uploaded image and enqueue it for feature indexing
// @Tags images
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image file"
// @Success 201 {object} ImageDetail
// @Failure 400 {object} map[string]interface{}
// @Router /api/images/upload [post]
func (s *Server) uploadImage(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		s.logger.Error().Msg("Session data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided."})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File must be an image."})
		return
	}

	// Store under a ULID name to avoid collisions, keep the original extension
	storedName := ulid.Make().String() + strings.ToLower(filepath.Ext(fileHeader.Filename))
	dst := filepath.Join(s.config.Media.Dir, storedName)
	if err := c.SaveUploadedFile(fileHeader, dst); err != nil {
		s.logger.Error().Err(err).Msg("Failed to store uploaded image")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error processing image."})
		return
	}

	image := &models.Image{
		UserID:   sessionData.UserID,
		Filename: fileHeader.Filename,
		Path:     storedName,
		Label:    c.PostForm("label"),
	}

	if err := s.db.Create(image).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create image record")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error processing image."})
		return
	}

	// Feature extraction runs in the background worker; the image becomes
	// searchable once the index task completes
	task, err := tasks.NewIndexImageTask(image.ID)
	if err == nil {
		_, err = s.asynqClient.Enqueue(task)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("image_id", image.ID).Msg("Failed to enqueue index task")
	}

	image.User = &models.User{BaseModel: models.BaseModel{ID: sessionData.UserID}, Username: sessionData.Username}

	s.logger.Info().
		Str("image_id", image.ID).
		Str("user_id", sessionData.UserID).
		Str("filename", image.Filename).
		Msg("Image uploaded")

	c.JSON(http.StatusCreated, s.imageDetail(c, image))
}

// @Summary List images
// @Description List the caller's images, or every image for admins
// @Tags images
// @Produce json
// @Security BearerAuth
// @Success 200 {array} ImageDetail
// @Router /api/images/list [get]
func (s *Server) listImages(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	query := s.db.Preload("User").Order("created_at DESC")
	// Admins see every image, regular users only their own
	if !sessionData.IsAdmin() {
		query = query.Where("user_id = ?", sessionData.UserID)
	}

	var images []models.Image
	if err := query.Find(&images).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list images")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	details := make([]ImageDetail, len(images))
	for i := range images {
		details[i] = s.imageDetail(c, &images[i])
	}

	c.JSON(http.StatusOK, details)
}

// @Summary Delete image
// @Description Delete an image owned by the caller (admins can delete any)
// @Tags images
// @Produce json
// @Security BearerAuth
// @Param id path string true "Image ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/images/{id} [delete]
func (s *Server) deleteImage(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	imageID := c.Param("id")

	query := s.db.Where("id = ?", imageID)
	if !sessionData.IsAdmin() {
		query = query.Where("user_id = ?", sessionData.UserID)
	}

	var image models.Image
	if err := query.First(&image).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Image not found."})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find image")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Delete(&image).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete image")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// Best effort file removal; a missing file is not an API error
	if err := removeMediaFile(s.config.Media.Dir, image.Path); err != nil {
		s.logger.Warn().Err(err).Str("path", image.Path).Msg("Failed to remove image file")
	}

	s.logger.Info().
		Str("image_id", image.ID).
		Str("deleted_by", sessionData.UserID).
		Msg("Image deleted")

	c.Status(http.StatusNoContent)
}

func removeMediaFile(mediaDir, path string) error {
	full := filepath.Join(mediaDir, filepath.Base(path))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
