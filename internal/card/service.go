// Package card is the data-access gateway for identity cards: it validates
// input, stores images, and reads and writes the caller's card rows.
package card

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/card/entity"
	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/storage"
	"github.com/ovaphlow/pitchfork/service-idcard-go/pkg/utilities"
)

var (
	ErrUnauthenticated = errors.New("not signed in")
	ErrValidation      = errors.New("invalid card")
	ErrStorage         = errors.New("file storage failed")
	ErrPersistence     = errors.New("database operation failed")
	ErrNotFound        = errors.New("card not found")
)

// ErrPhotoRequired is returned by create when no photo accompanies the card.
var ErrPhotoRequired = fmt.Errorf("%w: Profile photo is required", ErrValidation)

// Store is implemented by *repo.Repo.
type Store interface {
	Insert(ctx context.Context, c *entity.Card) error
	ListByOwner(ctx context.Context, userID string) ([]*entity.Card, error)
	FindByID(ctx context.Context, userID, id string) ([]*entity.Card, error)
	Update(ctx context.Context, c *entity.Card) (int64, error)
	Delete(ctx context.Context, userID, id string) (int64, error)
}

// ObjectStore is implemented by *storage.MinioStore.
type ObjectStore interface {
	Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) error
	PublicURL(objectName string) string
	Remove(ctx context.Context, objectName string) error
}

// Service executes card operations on behalf of the caller found on the
// request context.
type Service struct {
	store   Store
	objects ObjectStore
	logger  *zap.SugaredLogger
	now     func() time.Time
	newID   func() string
}

func NewService(store Store, objects ObjectStore, logger *zap.SugaredLogger) *Service {
	return &Service{
		store:   store,
		objects: objects,
		logger:  logger,
		now:     time.Now,
		newID:   utilities.NewSnowflakeID,
	}
}

func caller(ctx context.Context) (string, error) {
	id := session.CallerFromContext(ctx)
	if id == "" {
		return "", ErrUnauthenticated
	}
	return id, nil
}

type checkedImage struct {
	*Image
	contentType string
	ext         string
}

func checkImages(photo, signature *Image, photoRequired bool) (p, s *checkedImage, err error) {
	if photo == nil && photoRequired {
		return nil, nil, ErrPhotoRequired
	}
	if photo != nil {
		ct, ext, err := ValidateImage(photo)
		if err != nil {
			return nil, nil, err
		}
		p = &checkedImage{Image: photo, contentType: ct, ext: ext}
	}
	if signature != nil {
		ct, ext, err := ValidateImage(signature)
		if err != nil {
			return nil, nil, err
		}
		s = &checkedImage{Image: signature, contentType: ct, ext: ext}
	}
	return p, s, nil
}

// CreateCard validates everything before touching a backend, uploads the
// photo and then the optional signature, and inserts the row. Objects
// stored by a call that fails later are removed again.
func (s *Service) CreateCard(ctx context.Context, f entity.Fields, photo, signature *Image) (*entity.Card, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := ValidateFields(&f); err != nil {
		return nil, err
	}
	p, sig, err := checkImages(photo, signature, true)
	if err != nil {
		return nil, err
	}

	var uploaded []string
	fail := func(reason string, err error) (*entity.Card, error) {
		metrics.CardOperationFailures.WithLabelValues("create", reason).Inc()
		s.discard(ctx, uploaded)
		return nil, err
	}

	photoName, err := s.upload(ctx, userID, "photo", p)
	if err != nil {
		return fail("storage", err)
	}
	uploaded = append(uploaded, photoName)

	c := &entity.Card{
		ID:               s.newID(),
		UserID:           userID,
		FullName:         f.FullName,
		DOB:              f.DOB,
		PhoneNumber:      f.PhoneNumber,
		Email:            f.Email,
		OrganizationName: f.OrganizationName,
		PhotoURL:         s.objects.PublicURL(photoName),
		IDNumber:         utilities.NewCardNumber(s.now()),
	}
	if sig != nil {
		sigName, err := s.upload(ctx, userID, "signature", sig)
		if err != nil {
			return fail("storage", err)
		}
		uploaded = append(uploaded, sigName)
		c.SignatureURL = s.objects.PublicURL(sigName)
	}

	if err := s.store.Insert(ctx, c); err != nil {
		s.logger.Warnw("card insert failed", "user_id", userID, "err", err)
		return fail("persistence", fmt.Errorf("%w: %v", ErrPersistence, err))
	}
	metrics.CardsCreated.Inc()
	return c, nil
}

func (s *Service) upload(ctx context.Context, userID, kind string, img *checkedImage) (string, error) {
	name := storage.ObjectName(userID, img.ext)
	if err := s.objects.Upload(ctx, name, bytes.NewReader(img.Data), int64(len(img.Data)), img.contentType); err != nil {
		metrics.UploadFailures.WithLabelValues(kind).Inc()
		s.logger.Warnw("image upload failed", "kind", kind, "object", name, "err", err)
		return "", fmt.Errorf("%w: %s upload: %v", ErrStorage, kind, err)
	}
	return name, nil
}

// discard removes objects left behind by a failed call. Failures are only
// logged; the caller already has an error to report.
func (s *Service) discard(ctx context.Context, names []string) {
	ctx = context.WithoutCancel(ctx)
	for _, name := range names {
		if err := s.objects.Remove(ctx, name); err != nil {
			s.logger.Warnw("orphaned object not removed", "object", name, "err", err)
			continue
		}
		s.logger.Debugw("orphaned object removed", "object", name)
	}
}

// GetCards lists the caller's cards, newest first.
func (s *Service) GetCards(ctx context.Context) ([]*entity.Card, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	cards, err := s.store.ListByOwner(ctx, userID)
	if err != nil {
		metrics.CardOperationFailures.WithLabelValues("list", "persistence").Inc()
		s.logger.Warnw("card list failed", "user_id", userID, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return cards, nil
}

// GetCard returns exactly one of the caller's cards.
func (s *Service) GetCard(ctx context.Context, id string) (*entity.Card, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, userID, id)
}

func (s *Service) get(ctx context.Context, userID, id string) (*entity.Card, error) {
	cards, err := s.store.FindByID(ctx, userID, id)
	if err != nil {
		metrics.CardOperationFailures.WithLabelValues("get", "persistence").Inc()
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	switch len(cards) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return cards[0], nil
	default:
		return nil, fmt.Errorf("%w: %d rows for card %s", ErrPersistence, len(cards), id)
	}
}

// UpdateCard replaces the text fields and, when given, the photo or the
// signature. The id number and creation time never change.
func (s *Service) UpdateCard(ctx context.Context, id string, f entity.Fields, photo, signature *Image) (*entity.Card, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := ValidateFields(&f); err != nil {
		return nil, err
	}
	p, sig, err := checkImages(photo, signature, false)
	if err != nil {
		return nil, err
	}
	c, err := s.get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	var uploaded []string
	fail := func(reason string, err error) (*entity.Card, error) {
		metrics.CardOperationFailures.WithLabelValues("update", reason).Inc()
		s.discard(ctx, uploaded)
		return nil, err
	}

	if p != nil {
		name, err := s.upload(ctx, userID, "photo", p)
		if err != nil {
			return fail("storage", err)
		}
		uploaded = append(uploaded, name)
		c.PhotoURL = s.objects.PublicURL(name)
	}
	if sig != nil {
		name, err := s.upload(ctx, userID, "signature", sig)
		if err != nil {
			return fail("storage", err)
		}
		uploaded = append(uploaded, name)
		c.SignatureURL = s.objects.PublicURL(name)
	}

	c.FullName = f.FullName
	c.DOB = f.DOB
	c.PhoneNumber = f.PhoneNumber
	c.Email = f.Email
	c.OrganizationName = f.OrganizationName

	n, err := s.store.Update(ctx, c)
	if err != nil {
		s.logger.Warnw("card update failed", "id", id, "err", err)
		return fail("persistence", fmt.Errorf("%w: %v", ErrPersistence, err))
	}
	if n == 0 {
		return fail("not_found", ErrNotFound)
	}
	c.UpdatedAt = s.now()
	metrics.CardsUpdated.Inc()
	return c, nil
}

// DeleteCard removes the caller's card row. Stored images are kept.
func (s *Service) DeleteCard(ctx context.Context, id string) error {
	userID, err := caller(ctx)
	if err != nil {
		return err
	}
	n, err := s.store.Delete(ctx, userID, id)
	if err != nil {
		metrics.CardOperationFailures.WithLabelValues("delete", "persistence").Inc()
		s.logger.Warnw("card delete failed", "id", id, "err", err)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	metrics.CardsDeleted.Inc()
	return nil
}
