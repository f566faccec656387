// Package service orchestrates the adapters, storage and the valuation engine.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/realtoken-portfolio/internal/adapter"
	apperrors "github.com/realtoken-portfolio/internal/errors"
	"github.com/realtoken-portfolio/internal/logging"
	"github.com/realtoken-portfolio/internal/models"
	"github.com/realtoken-portfolio/internal/storage"
)

// CatalogStore persists catalog snapshots
type CatalogStore interface {
	List(ctx context.Context) ([]models.ReferenceAsset, error)
	ReplaceAll(ctx context.Context, assets []models.ReferenceAsset) error
	LastUpdated(ctx context.Context) (time.Time, error)
}

// CatalogProvider is what the portfolio and market services need
type CatalogProvider interface {
	GetCatalog(ctx context.Context) ([]models.ReferenceAsset, error)
}

// CatalogService serves the reference catalog from Redis, then Postgres,
// then the remote feed
type CatalogService struct {
	fetcher    adapter.CatalogFetcher
	store      CatalogStore
	cache      *storage.CacheService
	refreshTTL time.Duration
	now        func() time.Time

	refreshMu sync.Mutex
}

// NewCatalogService creates a catalog service. store and cache may be nil.
func NewCatalogService(fetcher adapter.CatalogFetcher, store CatalogStore, cache *storage.CacheService, refreshTTL time.Duration) *CatalogService {
	return &CatalogService{
		fetcher:    fetcher,
		store:      store,
		cache:      cache,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// GetCatalog returns the freshest catalog available. When the remote feed is
// down a stale stored copy is served rather than failing.
func (s *CatalogService) GetCatalog(ctx context.Context) ([]models.ReferenceAsset, error) {
	logger := logging.FromContext(ctx)

	if assets, ok := s.fromCache(ctx); ok {
		return assets, nil
	}

	var stored []models.ReferenceAsset
	if s.store != nil {
		var err error
		stored, err = s.store.List(ctx)
		if err != nil {
			logger.WithError(err).Warn("Failed to read stored catalog")
		} else if len(stored) > 0 && s.storedIsFresh(ctx) {
			s.toCache(ctx, stored)
			return stored, nil
		}
	}

	assets, err := s.Refresh(ctx)
	if err != nil {
		if len(stored) > 0 {
			logger.WithError(err).Warn("Catalog refresh failed, serving stored copy")
			return stored, nil
		}
		return nil, err
	}
	return assets, nil
}

// Refresh downloads the catalog and persists it
func (s *CatalogService) Refresh(ctx context.Context) ([]models.ReferenceAsset, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	logger := logging.FromContext(ctx)

	assets, err := s.fetcher.FetchCatalog(ctx)
	if err != nil {
		return nil, apperrors.NewProviderError("catalog", err)
	}
	if len(assets) == 0 {
		return nil, apperrors.NewProviderError("catalog", errEmptyCatalog)
	}

	if s.store != nil {
		if err := s.store.ReplaceAll(ctx, assets); err != nil {
			logger.WithError(err).Warn("Failed to persist catalog")
		}
	}
	s.toCache(ctx, assets)

	if s.cache != nil {
		for _, keyType := range []storage.CacheKeyType{storage.CacheKeyPortfolio, storage.CacheKeyMarket} {
			if err := s.cache.InvalidateType(ctx, keyType); err != nil {
				logger.WithError(err).Warn("Failed to invalidate derived cache")
			}
		}
	}

	logger.WithField("assets", len(assets)).Info("Catalog refreshed")
	return assets, nil
}

func (s *CatalogService) storedIsFresh(ctx context.Context) bool {
	updated, err := s.store.LastUpdated(ctx)
	if err != nil || updated.IsZero() {
		return false
	}
	return s.now().Sub(updated) < s.refreshTTL
}

func (s *CatalogService) fromCache(ctx context.Context) ([]models.ReferenceAsset, bool) {
	if s.cache == nil {
		return nil, false
	}
	var assets []models.ReferenceAsset
	found, err := s.cache.Get(ctx, s.cache.CatalogKey(), &assets)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Catalog cache read failed")
		return nil, false
	}
	return assets, found && len(assets) > 0
}

func (s *CatalogService) toCache(ctx context.Context, assets []models.ReferenceAsset) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetWithTTL(ctx, s.cache.CatalogKey(), assets, s.refreshTTL); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Catalog cache write failed")
	}
}
