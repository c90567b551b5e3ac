package intake

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diamondaura/storefront/internal/auth"
	"github.com/diamondaura/storefront/internal/domain"
	"github.com/diamondaura/storefront/pkg/common"
)

const maxDescriptionLength = 500

// DateFilter bounds are inclusive; To covers its whole day
type DateFilter struct {
	From *time.Time
	To   *time.Time
}

func (f DateFilter) apply(query *gorm.DB) *gorm.DB {
	if f.From != nil {
		query = query.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		end := *f.To
		if end.Hour() == 0 && end.Minute() == 0 && end.Second() == 0 && end.Nanosecond() == 0 {
			end = end.AddDate(0, 0, 1)
		}
		query = query.Where("created_at < ?", end)
	}
	return query
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func checkDescription(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.NewValidationError("description", "this field is required")
	}
	if utf8.RuneCountInString(text) > maxDescriptionLength {
		return "", domain.NewValidationError("description", "must be at most 500 characters")
	}
	return text, nil
}

func (s *Service) SubmitFeedback(ctx context.Context, who *auth.Principal, text string) (*domain.Feedback, error) {
	if err := auth.RequireCustomer(who); err != nil {
		return nil, err
	}
	text, err := checkDescription(text)
	if err != nil {
		return nil, err
	}
	feedback := &domain.Feedback{ID: common.UUIDint64(), CustomerID: who.CustomerID, Description: text, CreatedAt: time.Now()}
	if err := s.db.WithContext(ctx).Create(feedback).Error; err != nil {
		return nil, errors.Wrap(err, "create feedback")
	}
	zap.L().Info("feedback received", zap.String("namespace", "intake"), zap.Int64("customer_id", who.CustomerID))
	return feedback, nil
}

func (s *Service) SubmitComplaint(ctx context.Context, who *auth.Principal, productID int64, text string) (*domain.Complaint, error) {
	if err := auth.RequireCustomer(who); err != nil {
		return nil, err
	}
	text, err := checkDescription(text)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&domain.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "query product")
	}
	if count == 0 {
		return nil, domain.NewValidationError("product_id", "select a valid product")
	}
	complaint := &domain.Complaint{
		ID:          common.UUIDint64(),
		CustomerID:  who.CustomerID,
		ProductID:   productID,
		Description: text,
		CreatedAt:   time.Now(),
	}
	if err := db.Create(complaint).Error; err != nil {
		return nil, errors.Wrap(err, "create complaint")
	}
	zap.L().Info("complaint received",
		zap.String("namespace", "intake"),
		zap.Int64("customer_id", who.CustomerID),
		zap.Int64("product_id", productID))
	return complaint, nil
}

func (s *Service) ListFeedback(ctx context.Context, who *auth.Principal, filter DateFilter) ([]domain.Feedback, error) {
	if err := auth.RequireAdmin(who); err != nil {
		return nil, err
	}
	var items []domain.Feedback
	query := filter.apply(s.db.WithContext(ctx).Preload("Customer"))
	if err := query.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, errors.Wrap(err, "query feedback")
	}
	return items, nil
}

func (s *Service) ListComplaints(ctx context.Context, who *auth.Principal, filter DateFilter) ([]domain.Complaint, error) {
	if err := auth.RequireAdmin(who); err != nil {
		return nil, err
	}
	var items []domain.Complaint
	query := filter.apply(s.db.WithContext(ctx).Preload("Customer").Preload("Product"))
	if err := query.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, errors.Wrap(err, "query complaints")
	}
	return items, nil
}
