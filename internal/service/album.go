package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"TourRoute/internal/model"
	"TourRoute/internal/repository"
	"TourRoute/pkg/logger"
	"TourRoute/storage/database"
)

type AlbumService struct {
	store repository.Store
}

var (
	albumService *AlbumService
	albumOnce    sync.Once
)

func Album() *AlbumService {
	albumOnce.Do(func() {
		albumService = NewAlbumService(repository.NewStore(database.DB()))
	})
	return albumService
}

func NewAlbumService(store repository.Store) *AlbumService {
	return &AlbumService{store: store}
}

// AlbumName 线路相册名，例如 "Circuit Album: 12 (2024-05-01)"
func AlbumName(targetID int64, at time.Time) string {
	return fmt.Sprintf("Circuit Album: %d (%s)", targetID, at.Format("2006-01-02"))
}

// CreateAlbum 创建空相册
func (s *AlbumService) CreateAlbum(ctx context.Context, userID int64, name string, routeID *int64) (int64, error) {
	album := &model.Album{UserID: userID, Name: name, RouteID: routeID}
	if err := s.store.Albums().CreateAlbum(ctx, album); err != nil {
		return 0, fmt.Errorf("failed to create album: %w", err)
	}
	return album.ID, nil
}

// AttachMedia 把到访 POI 的相册素材挂到相册下，没有素材时返回 0
func (s *AlbumService) AttachMedia(ctx context.Context, albumID int64, poiIDs []int64) (int, error) {
	if len(poiIDs) == 0 {
		return 0, nil
	}

	files, err := s.store.Albums().AlbumFiles(ctx, poiIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to query album files: %w", err)
	}
	if len(files) == 0 {
		return 0, nil
	}

	items := make([]model.AlbumPOI, 0, len(files))
	for _, f := range files {
		items = append(items, model.AlbumPOI{AlbumID: albumID, POIFileID: f.ID})
	}
	if err := s.store.Albums().AttachFiles(ctx, items); err != nil {
		return 0, fmt.Errorf("failed to attach album files: %w", err)
	}

	logger.Logger.Debug("Album media attached",
		zap.Int64("album_id", albumID),
		zap.Int("files", len(items)),
	)
	return len(items), nil
}
