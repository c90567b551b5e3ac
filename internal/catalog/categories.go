package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diamondaura/storefront/internal/auth"
	"github.com/diamondaura/storefront/internal/domain"
	"github.com/diamondaura/storefront/pkg/common"
)

// CategoryDeletePreview what a category delete would remove
type CategoryDeletePreview struct {
	Category     domain.Category `json:"category"`
	ProductCount int64           `json:"product_count"`
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := s.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, errors.Wrap(err, "query categories")
	}
	return categories, nil
}

func (s *Service) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	var category domain.Category
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "query category")
	}
	return &category, nil
}

func (s *Service) checkCategoryName(ctx context.Context, name string, exceptID int64) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.NewValidationError("name", "this field is required")
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Category{}).
		Where("name = ? AND id <> ?", name, exceptID).
		Count(&count).Error
	if err != nil {
		return "", errors.Wrap(err, "check category name")
	}
	if count > 0 {
		return "", domain.NewValidationError("name", "category with this name already exists")
	}
	return name, nil
}

func (s *Service) CreateCategory(ctx context.Context, who *auth.Principal, name string) (*domain.Category, error) {
	if err := auth.RequireAdmin(who); err != nil {
		return nil, err
	}
	name, err := s.checkCategoryName(ctx, name, 0)
	if err != nil {
		return nil, err
	}
	category := &domain.Category{ID: common.UUIDint64(), Name: name}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		if domain.IsDuplicateKey(err) {
			return nil, domain.NewValidationError("name", "category with this name already exists")
		}
		return nil, errors.Wrap(err, "create category")
	}
	zap.L().Info("category created", zap.String("namespace", "catalog"), zap.String("name", name))
	return category, nil
}

func (s *Service) UpdateCategory(ctx context.Context, who *auth.Principal, id int64, name string) (*domain.Category, error) {
	if err := auth.RequireAdmin(who); err != nil {
		return nil, err
	}
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	name, err = s.checkCategoryName(ctx, name, id)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(&domain.Category{}).Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "updated_at": time.Now()}).Error
	if domain.IsDuplicateKey(err) {
		return nil, domain.NewValidationError("name", "category with this name already exists")
	} else if err != nil {
		return nil, errors.Wrap(err, "update category")
	}
	category.Name = name
	return category, nil
}

// CategoryDeletePreview counts the products a delete would cascade to
func (s *Service) CategoryDeletePreview(ctx context.Context, who *auth.Principal, id int64) (*CategoryDeletePreview, error) {
	if err := auth.RequireAdmin(who); err != nil {
		return nil, err
	}
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	preview := &CategoryDeletePreview{Category: *category}
	if err := s.db.WithContext(ctx).Model(&domain.Product{}).Where("category_id = ?", id).Count(&preview.ProductCount).Error; err != nil {
		return nil, errors.Wrap(err, "count products")
	}
	return preview, nil
}

// DeleteCategory removes the category and everything hanging off its products
func (s *Service) DeleteCategory(ctx context.Context, who *auth.Principal, id int64) error {
	if err := auth.RequireAdmin(who); err != nil {
		return err
	}
	var refs []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return errors.Wrap(err, "query category")
		}
		if count == 0 {
			return domain.ErrNotFound
		}
		var productIDs []int64
		if err := tx.Model(&domain.Product{}).Where("category_id = ?", id).Pluck("id", &productIDs).Error; err != nil {
			return errors.Wrap(err, "query category products")
		}
		var err error
		if refs, err = deleteProductsTx(tx, productIDs); err != nil {
			return err
		}
		return errors.Wrap(tx.Where("id = ?", id).Delete(&domain.Category{}).Error, "delete category")
	})
	if err != nil {
		return err
	}
	if s.files != nil {
		s.files.RemoveAll(refs)
	}
	zap.L().Info("category deleted", zap.String("namespace", "catalog"), zap.Int64("category_id", id), zap.Int("images", len(refs)))
	return nil
}
