package main

import (
	"context"

	apperrors "github.com/realtoken-portfolio/internal/errors"
	"github.com/realtoken-portfolio/internal/models"
)

// unavailableMarket answers the market routes when no statistics source is configured
type unavailableMarket struct{}

func (unavailableMarket) GetDivergence(ctx context.Context) ([]models.MarketRow, error) {
	return nil, apperrors.NewServiceUnavailableError("market statistics")
}
