package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sean-rowe/weather-history-service/internal/core/domain"
	"github.com/sean-rowe/weather-history-service/internal/core/ports"
)

const (
	// maxVideos caps the number of video links returned per location.
	maxVideos = 3

	mapsLinkFormat = "https://www.google.com/maps?q=%s,%s"
)

type enrichmentService struct {
	repo   ports.RequestRepository
	videos ports.VideoSearch
	logger *zap.Logger
}

// NewEnrichmentService creates the extras lookup. Neither the store nor the video
// collaborator can make it fail.
func NewEnrichmentService(repo ports.RequestRepository, videos ports.VideoSearch, logger *zap.Logger) ports.EnrichmentService {
	return &enrichmentService{
		repo:   repo,
		videos: videos,
		logger: logger,
	}
}

func (s *enrichmentService) Enrich(ctx context.Context, location string) (*domain.Extras, error) {
	extras := &domain.Extras{
		Location: location,
		Videos:   s.searchVideos(ctx, location),
	}

	name := strings.TrimSpace(location)

	// a blank name would be a substring of every stored location
	if name == "" {
		return extras, nil
	}

	match, err := s.repo.FindByResolvedName(ctx, name)

	if err != nil {
		s.logger.Warn("stored location lookup failed",
			zap.String("location", location),
			zap.Error(err))
	}

	if match != nil {
		country := match.Country
		link := MapsLink(match.Coordinates())

		extras.Country = &country
		extras.MapsLink = &link
	}

	return extras, nil
}

func (s *enrichmentService) searchVideos(ctx context.Context, location string) []domain.Video {
	videos, err := s.videos.Search(ctx, location+" travel", maxVideos)

	if err != nil {
		s.logger.Warn("video search failed, returning no videos",
			zap.String("location", location),
			zap.Error(err))

		return []domain.Video{}
	}

	if videos == nil {
		return []domain.Video{}
	}

	if len(videos) > maxVideos {
		videos = videos[:maxVideos]
	}

	return videos
}

// MapsLink builds a Google Maps link centred on coords.
func MapsLink(coords domain.Coordinates) string {
	return fmt.Sprintf(mapsLinkFormat, formatFloat(coords.Latitude), formatFloat(coords.Longitude))
}
