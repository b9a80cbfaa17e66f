package server

import (
	"io"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pixido-dev/pixido/internal/features"
	"github.com/pixido-dev/pixido/internal/models"
)

// maxTopK caps result counts to keep query cost bounded
const maxTopK = 200

// SearchResult represents one ranked match
type SearchResult struct {
	ImageID  string  `json:"image_id"`
	Filename string  `json:"filename"`
	Label    string  `json:"label,omitempty"`
	ImageURL string  `json:"image_url"`
	Score    float64 `json:"score"` // Similarity in percent, 0..100
}

// SearchResponse represents the search endpoint response
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

// @Summary Similarity search
// @Description Rank indexed images by visual similarity to the query image
// @Tags search
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Query image"
// @Param top_k formData int false "Maximum number of results"
// @Success 200 {object} SearchResponse
// @Failure 400 {object} map[string]interface{}
// @Router /api/search [post]
func (s *Server) search(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No query image provided."})
		return
	}

	if !strings.HasPrefix(fileHeader.Header.Get("Content-Type"), "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File must be an image."})
		return
	}

	topK := s.config.Search.DefaultTopK
	if v := c.PostForm("top_k"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			topK = n
		}
	}
	if topK > maxTopK {
		topK = maxTopK
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error processing image."})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error processing image."})
		return
	}

	queryVec, err := features.Extract(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error processing image: " + err.Error()})
		return
	}

	// The query runs against every indexed image regardless of owner; search
	// results are shared, ownership only restricts management operations
	var images []models.Image
	if err := s.db.Where("indexed = ?", true).Find(&images).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to load indexed images")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	results := make([]SearchResult, 0, len(images))
	for i := range images {
		vec, err := features.FromJSON(images[i].FeatureVector)
		if err != nil {
			// A corrupt vector should not sink the whole query
			s.logger.Warn().Err(err).Str("image_id", images[i].ID).Msg("Skipping image with bad feature vector")
			continue
		}
		sim := features.CosineSimilarity(queryVec, vec)
		results = append(results, SearchResult{
			ImageID:  images[i].ID,
			Filename: images[i].Filename,
			Label:    images[i].Label,
			ImageURL: absoluteMediaURL(c, images[i].Path),
			Score:    math.Round(sim*100*100) / 100,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}

	// Record the search for usage stats; failure here must not fail the query
	history := &models.SearchHistory{
		UserID:       sessionData.UserID,
		ResultsCount: len(results),
	}
	if err := s.db.Create(history).Error; err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record search history")
	}

	c.JSON(http.StatusOK, SearchResponse{
		Results: results,
		Count:   len(results),
	})
}
