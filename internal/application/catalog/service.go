package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	domcatalog "github.com/asif4762/bookbarn-final-server/internal/domain/catalog"
	"github.com/asif4762/bookbarn-final-server/internal/pkg/logging"
)

type IDGenerator interface {
	NewID() string
}

type Service struct {
	repo domcatalog.Repository
	ids  IDGenerator
}

func NewService(repo domcatalog.Repository, ids IDGenerator) *Service {
	return &Service{repo: repo, ids: ids}
}

type AddInput struct {
	Title       string
	Author      string
	Course      string
	Condition   string
	Category    string
	Description string
	Location    string
	Image       string
	SellerEmail string
	Price       int64
	Quantity    int
}

func (s *Service) Add(ctx context.Context, input AddInput) (*domcatalog.Listing, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "catalog_service"))

	listing, err := domcatalog.New(s.ids.NewID(), input.Title, input.Author, input.SellerEmail, input.Price, input.Quantity)
	if err != nil {
		return nil, err
	}
	listing.Course = input.Course
	listing.Condition = input.Condition
	listing.Category = input.Category
	listing.Description = input.Description
	listing.Location = input.Location
	listing.Image = input.Image

	if err := s.repo.Insert(ctx, listing); err != nil {
		logger.Error("listing_insert_failed", zap.String("listing_id", listing.ID), zap.Error(err))
		return nil, fmt.Errorf("catalog: insert: %w", err)
	}

	logger.Info("listing_added",
		zap.String("listing_id", listing.ID),
		zap.String("seller_email", listing.SellerEmail),
	)
	return listing, nil
}

func (s *Service) List(ctx context.Context, filter domcatalog.Filter) ([]*domcatalog.Listing, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id string) (*domcatalog.Listing, error) {
	if id == "" {
		return nil, domcatalog.ErrMissingField
	}
	return s.repo.FindByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domcatalog.ErrMissingField
	}
	return s.repo.Delete(ctx, id)
}
