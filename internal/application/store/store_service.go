package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// StoreService manages a merchant's own store settings.
type StoreService struct {
	tenants   identity.TenantRepository
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewStoreService creates a StoreService. publisher may be nil.
func NewStoreService(tenants identity.TenantRepository, publisher shared.EventPublisher, logger *zap.Logger) *StoreService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreService{tenants: tenants, publisher: publisher, logger: logger}
}

// Profile returns the store owned by tenantID.
func (s *StoreService) Profile(ctx context.Context, tenantID uuid.UUID) (*ProfileResponse, error) {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return toProfileResponse(tenant), nil
}

// PublicProfile returns the shopper-facing store details. The storefront
// only reaches active stores, so no status check happens here.
func (s *StoreService) PublicProfile(ctx context.Context, tenantID uuid.UUID) (*PublicProfileResponse, error) {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return toPublicProfile(tenant), nil
}

func (s *StoreService) UpdateProfile(ctx context.Context, tenantID uuid.UUID, req UpdateProfileRequest) (*ProfileResponse, error) {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if err := tenant.ChangeProfile(identity.StoreProfile{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		LogoURL:      req.LogoURL,
		Domain:       req.Domain,
	}); err != nil {
		return nil, err
	}
	if err := s.save(ctx, tenant); err != nil {
		return nil, err
	}
	return toProfileResponse(tenant), nil
}

// ChangeStatus opens or closes the storefront.
func (s *StoreService) ChangeStatus(ctx context.Context, tenantID uuid.UUID, req ChangeStatusRequest) (*ProfileResponse, error) {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	// A suspended store stays suspended until an operator lifts it.
	if tenant.Status == identity.TenantStatusSuspended {
		return nil, shared.NewDomainError("ALREADY_SUSPENDED", "Store is suspended")
	}
	if err := tenant.ChangeStatus(identity.TenantStatus(req.Status)); err != nil {
		return nil, err
	}
	if err := s.save(ctx, tenant); err != nil {
		return nil, err
	}
	s.logger.Info("store status changed",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("status", string(tenant.Status)),
	)
	return toProfileResponse(tenant), nil
}

func (s *StoreService) save(ctx context.Context, tenant *identity.Tenant) error {
	if err := s.tenants.Save(ctx, tenant); err != nil {
		return err
	}
	events := tenant.PendingEvents()
	tenant.MarkEventsPublished()
	if s.publisher == nil || len(events) == 0 {
		return nil
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish store events", zap.Error(err))
	}
	return nil
}
