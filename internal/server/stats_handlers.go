package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pixido-dev/pixido/internal/models"
)

// RoleCount represents the user count for one role
type RoleCount struct {
	Role  string `json:"role"`
	Count int64  `json:"count"`
}

// StatsResponse contains system and usage statistics (admin only)
type StatsResponse struct {
	Version string `json:"version"`
	Users   struct {
		Total  int64       `json:"total"`
		ByRole []RoleCount `json:"by_role"`
	} `json:"users"`
	Images struct {
		Total         int64 `json:"total"`
		Indexed       int64 `json:"indexed"`
		RecentUploads int64 `json:"recent_uploads"`
	} `json:"images"`
	Searches struct {
		Total  int64 `json:"total"`
		Recent int64 `json:"recent"`
	} `json:"searches"`
}

// @Summary Usage statistics
// @Description Returns user, image, and search statistics (admin only)
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} StatsResponse
// @Failure 403 {object} map[string]interface{}
// @Router /api/stats [get]
func (s *Server) getStats(c *gin.Context) {
	var resp StatsResponse
	resp.Version = s.version

	weekAgo := time.Now().AddDate(0, 0, -7)

	counts := []func() error{
		func() error {
			return s.db.Model(&models.User{}).Count(&resp.Users.Total).Error
		},
		func() error {
			return s.db.Model(&models.Image{}).Count(&resp.Images.Total).Error
		},
		func() error {
			return s.db.Model(&models.Image{}).Where("indexed = ?", true).Count(&resp.Images.Indexed).Error
		},
		func() error {
			return s.db.Model(&models.Image{}).Where("created_at >= ?", weekAgo).Count(&resp.Images.RecentUploads).Error
		},
		func() error {
			return s.db.Model(&models.SearchHistory{}).Count(&resp.Searches.Total).Error
		},
		func() error {
			return s.db.Model(&models.SearchHistory{}).Where("created_at >= ?", weekAgo).Count(&resp.Searches.Recent).Error
		},
	}

	for _, count := range counts {
		if err := count(); err != nil {
			s.logger.Error().Err(err).Msg("Failed to compute stats")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	if err := s.db.Model(&models.User{}).
		Select("role, count(id) as count").
		Group("role").
		Scan(&resp.Users.ByRole).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to compute role counts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, resp)
}
