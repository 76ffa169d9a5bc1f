package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/staysquare/api/internal/application/ingest"
	"github.com/staysquare/api/internal/domain"
	"github.com/staysquare/api/internal/pkg/id"
	"github.com/staysquare/api/internal/pkg/validate"
)

// ListingStore persists listing documents.
type ListingStore interface {
	Put(ctx context.Context, l *domain.Listing) error
	Get(ctx context.Context, listingID string) (*domain.Listing, error)
	ListAll(ctx context.Context) ([]domain.Listing, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error)
	Delete(ctx context.Context, listingID string) error
}

// IdentityDirectory resolves owner display names for read-time joins.
type IdentityDirectory interface {
	Get(ctx context.Context, identityID string) (*domain.Identity, error)
}

// Ingestor uploads a batch of temp files and returns index-aligned URLs.
type Ingestor interface {
	Ingest(ctx context.Context, ownerID string, files []ingest.TempFile) ([]string, error)
}

// Notifier sends the best-effort "listing published" SMS.
type Notifier interface {
	SendSMS(ctx context.Context, to, message string) error
}

type Service interface {
	Create(ctx context.Context, ownerID string, req domain.CreateListingRequest, files []ingest.TempFile) (*domain.Listing, error)
	Get(ctx context.Context, listingID string) (*domain.Listing, error)
	List(ctx context.Context) ([]domain.Listing, error)
	ListMine(ctx context.Context, ownerID string) ([]domain.Listing, error)
	Delete(ctx context.Context, listingID, requesterID string) error
}

// ServiceDeps bundles the collaborators a listing Service needs.
// Notifier may be nil; publish notifications are then skipped.
type ServiceDeps struct {
	Store     ListingStore
	Directory IdentityDirectory
	Ingestor  Ingestor
	Notifier  Notifier
}

type service struct {
	store     ListingStore
	directory IdentityDirectory
	ingestor  Ingestor
	notifier  Notifier
}

func NewService(d ServiceDeps) Service {
	return &service{
		store:     d.Store,
		directory: d.Directory,
		ingestor:  d.Ingestor,
		notifier:  d.Notifier,
	}
}

// Create validates the draft fully before any upload happens, so a
// doomed-to-fail request never costs network calls. The temp files are
// discarded here on validation failure; once the ingestor runs it owns them.
func (s *service) Create(ctx context.Context, ownerID string, req domain.CreateListingRequest, files []ingest.TempFile) (*domain.Listing, error) {
	loc, prices, err := parseDraft(req)
	if err != nil {
		ingest.Discard(files)
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("at least one image is required: %w", domain.ErrBadRequest)
	}
	if len(files) > ingest.MaxFiles {
		ingest.Discard(files)
		return nil, fmt.Errorf("at most %d images are allowed: %w", ingest.MaxFiles, domain.ErrBadRequest)
	}

	urls, err := s.ingestor.Ingest(ctx, ownerID, files)
	if err != nil {
		return nil, err
	}

	l := &domain.Listing{
		ListingID:   id.New(),
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Gender:      req.Gender,
		City:        req.City,
		Area:        strings.TrimSpace(req.Area),
		Location:    loc,
		Phone:       strings.TrimSpace(req.Phone),
		Prices:      prices,
		Images:      urls,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.Put(ctx, l); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		msg := fmt.Sprintf("Your listing %q is now live on StaySquare.", l.Name)
		if err := s.notifier.SendSMS(ctx, l.Phone, msg); err != nil {
			slog.Warn("could not send publish notification", "listing_id", l.ListingID, "err", err)
		}
	}

	s.decorate(ctx, l)
	return l, nil
}

func (s *service) Get(ctx context.Context, listingID string) (*domain.Listing, error) {
	l, err := s.store.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	s.decorate(ctx, l)
	return l, nil
}

func (s *service) List(ctx context.Context) ([]domain.Listing, error) {
	listings, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	s.decorateAll(ctx, listings)
	return listings, nil
}

func (s *service) ListMine(ctx context.Context, ownerID string) ([]domain.Listing, error) {
	listings, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	s.decorateAll(ctx, listings)
	return listings, nil
}

func (s *service) Delete(ctx context.Context, listingID, requesterID string) error {
	l, err := s.store.Get(ctx, listingID)
	if err != nil {
		return err
	}
	if l.OwnerID != requesterID {
		return fmt.Errorf("only the owner may delete this listing: %w", domain.ErrForbidden)
	}
	return s.store.Delete(ctx, listingID)
}

// decorate attaches the owner's display name (never the email) and the
// computed minimum price used for display.
func (s *service) decorate(ctx context.Context, l *domain.Listing) {
	l.MinPrice = domain.MinPrice(l.Prices)
	ident, err := s.directory.Get(ctx, l.OwnerID)
	if err != nil {
		slog.Warn("could not resolve listing owner", "listing_id", l.ListingID, "err", err)
		return
	}
	l.OwnerName = ident.Name
}

func (s *service) decorateAll(ctx context.Context, listings []domain.Listing) {
	names := make(map[string]string)
	for i := range listings {
		l := &listings[i]
		l.MinPrice = domain.MinPrice(l.Prices)
		if name, ok := names[l.OwnerID]; ok {
			l.OwnerName = name
			continue
		}
		ident, err := s.directory.Get(ctx, l.OwnerID)
		if err != nil {
			slog.Warn("could not resolve listing owner", "listing_id", l.ListingID, "err", err)
			continue
		}
		names[l.OwnerID] = ident.Name
		l.OwnerName = ident.Name
	}
}

// parseDraft runs the field-presence gate and parses the textual lat/lng and
// prices payloads. A malformed prices document is a distinct failure from a
// missing field, but both wrap domain.ErrBadRequest.
func parseDraft(req domain.CreateListingRequest) (domain.GeoPoint, []domain.PriceTier, error) {
	var loc domain.GeoPoint

	if err := validate.Struct(&req); err != nil {
		return loc, nil, fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}

	lat, err := strconv.ParseFloat(req.Lat, 64)
	if err != nil {
		return loc, nil, fmt.Errorf("invalid latitude: %w", domain.ErrBadRequest)
	}
	lng, err := strconv.ParseFloat(req.Lng, 64)
	if err != nil {
		return loc, nil, fmt.Errorf("invalid longitude: %w", domain.ErrBadRequest)
	}
	loc = domain.GeoPoint{Lat: lat, Lng: lng}

	var prices []domain.PriceTier
	if err := json.Unmarshal([]byte(req.Prices), &prices); err != nil {
		return loc, nil, fmt.Errorf("invalid prices format: %w", domain.ErrBadRequest)
	}
	if len(prices) == 0 {
		return loc, nil, fmt.Errorf("at least one price tier is required: %w", domain.ErrBadRequest)
	}
	for _, tier := range prices {
		if err := validate.Struct(&tier); err != nil {
			return loc, nil, fmt.Errorf("invalid price tier: %s: %w", err, domain.ErrBadRequest)
		}
	}
	return loc, prices, nil
}
