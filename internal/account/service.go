package account

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/diamondaura/storefront/internal/auth"
	"github.com/diamondaura/storefront/internal/domain"
	"github.com/diamondaura/storefront/pkg/common"
)

const minPasswordLength = 8

var compareHash = bcrypt.CompareHashAndPassword

var (
	dummyHash     []byte
	dummyHashOnce sync.Once
)

func unknownUserHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("storefront-unknown-user"), bcrypt.DefaultCost)
	})
	return dummyHash
}

// Service owns identities and their admin/customer profiles
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type RegisterInput struct {
	Username string
	Password string
	Name     string
	Email    string
	Phone    string
	Address  string
}

// ProfileUpdate nil or blank fields keep their current value
type ProfileUpdate struct {
	Name    *string
	Phone   *string
	Address *string
}

// AdminSeed describes the default back-office account
type AdminSeed struct {
	Username string
	Password string
	Email    string
}

// Register creates an identity and its customer profile in one transaction
func (s *Service) Register(ctx context.Context, in RegisterInput) (*auth.Principal, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)

	required := []struct{ field, value string }{
		{"username", in.Username},
		{"password", in.Password},
		{"name", in.Name},
		{"email", in.Email},
		{"phone", in.Phone},
		{"address", in.Address},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, domain.NewValidationError(r.field, "this field is required")
		}
	}
	if len(in.Password) < minPasswordLength {
		return nil, domain.NewValidationError("password", "must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	identity := domain.Identity{
		ID:        common.UUIDint64(),
		Username:  in.Username,
		Password:  string(hash),
		Role:      domain.RoleCustomer,
		LastLogin: time.Now(),
	}
	customer := domain.Customer{
		ID:         common.UUIDint64(),
		IdentityID: identity.ID,
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Phone,
		Address:    in.Address,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&domain.Identity{}).Where("username = ?", in.Username).Count(&taken).Error; err != nil {
			return errors.Wrap(err, "check username")
		}
		if taken > 0 {
			return domain.NewValidationError("username", "a user with that username already exists")
		}
		if err := tx.Create(&identity).Error; err != nil {
			if domain.IsDuplicateKey(err) {
				return domain.NewValidationError("username", "a user with that username already exists")
			}
			return errors.Wrap(err, "create identity")
		}
		if err := tx.Create(&customer).Error; err != nil {
			return errors.Wrap(err, "create customer")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("customer registered",
		zap.String("namespace", "account"),
		zap.String("username", identity.Username),
		zap.Int64("customer_id", customer.ID))
	return &auth.Principal{
		IdentityID: identity.ID,
		Username:   identity.Username,
		Role:       identity.Role,
		CustomerID: customer.ID,
	}, nil
}

// Login checks the credential; every failure is ErrInvalidCredentials
func (s *Service) Login(ctx context.Context, username, password string) (*auth.Principal, error) {
	var identity domain.Identity
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// compare anyway so unknown usernames take as long as wrong passwords
		_ = compareHash(unknownUserHash(), []byte(password))
		return nil, domain.ErrInvalidCredentials
	} else if err != nil {
		return nil, errors.Wrap(err, "query identity")
	}
	if compareHash([]byte(identity.Password), []byte(password)) != nil {
		zap.L().Warn("login failed", zap.String("namespace", "account"), zap.String("username", identity.Username))
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.db.WithContext(ctx).Model(&domain.Identity{}).
		Where("id = ?", identity.ID).
		Update("last_login", time.Now()).Error; err != nil {
		zap.L().Warn("failed to update last login", zap.Int64("identity_id", identity.ID), zap.Error(err))
	}
	return s.principalFor(ctx, &identity)
}

// Resolve rebuilds the principal stored in a session
func (s *Service) Resolve(ctx context.Context, identityID int64) (*auth.Principal, error) {
	var identity domain.Identity
	err := s.db.WithContext(ctx).Where("id = ?", identityID).First(&identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUnauthenticated
	} else if err != nil {
		return nil, errors.Wrap(err, "query identity")
	}
	return s.principalFor(ctx, &identity)
}

func (s *Service) principalFor(ctx context.Context, identity *domain.Identity) (*auth.Principal, error) {
	p := &auth.Principal{
		IdentityID: identity.ID,
		Username:   identity.Username,
		Role:       identity.Role,
	}
	if identity.Role != domain.RoleCustomer {
		return p, nil
	}
	var customer domain.Customer
	err := s.db.WithContext(ctx).Where("identity_id = ?", identity.ID).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// an identity without its profile cannot shop
		return nil, domain.ErrUnauthenticated
	} else if err != nil {
		return nil, errors.Wrap(err, "query customer")
	}
	p.CustomerID = customer.ID
	return p, nil
}

// IsAdmin is the capability check used before admin operations
func (s *Service) IsAdmin(p *auth.Principal) bool {
	return auth.IsAdmin(p)
}

func (s *Service) Profile(ctx context.Context, who *auth.Principal) (*domain.Customer, error) {
	if err := auth.RequireCustomer(who); err != nil {
		return nil, err
	}
	var customer domain.Customer
	err := s.db.WithContext(ctx).Where("id = ?", who.CustomerID).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "query customer")
	}
	return &customer, nil
}

func (s *Service) UpdateProfile(ctx context.Context, who *auth.Principal, in ProfileUpdate) (*domain.Customer, error) {
	if err := auth.RequireCustomer(who); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if v := common.TrimPtr(in.Name); v != nil && *v != "" {
		updates["name"] = *v
	}
	if v := common.TrimPtr(in.Phone); v != nil && *v != "" {
		updates["phone"] = *v
	}
	if v := common.TrimPtr(in.Address); v != nil && *v != "" {
		updates["address"] = *v
	}
	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
		res := s.db.WithContext(ctx).Model(&domain.Customer{}).Where("id = ?", who.CustomerID).Updates(updates)
		if res.Error != nil {
			return nil, errors.Wrap(res.Error, "update customer")
		}
		if res.RowsAffected == 0 {
			return nil, domain.ErrNotFound
		}
	}
	return s.Profile(ctx, who)
}

// ListCustomers admin user management view
func (s *Service) ListCustomers(ctx context.Context, who *auth.Principal) ([]domain.Customer, error) {
	if err := auth.RequireAdmin(who); err != nil {
		return nil, err
	}
	var customers []domain.Customer
	if err := s.db.WithContext(ctx).Preload("Identity").Order("created_at DESC").Find(&customers).Error; err != nil {
		return nil, errors.Wrap(err, "query customers")
	}
	return customers, nil
}

// DeleteCustomer removes the customer with its identity, cart, orders, payments,
// feedback and complaints in one transaction
func (s *Service) DeleteCustomer(ctx context.Context, who *auth.Principal, customerID int64) error {
	if err := auth.RequireAdmin(who); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer domain.Customer
		err := tx.Where("id = ?", customerID).First(&customer).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		} else if err != nil {
			return errors.Wrap(err, "query customer")
		}

		var orderIDs []int64
		if err := tx.Model(&domain.Order{}).Where("customer_id = ?", customerID).Pluck("id", &orderIDs).Error; err != nil {
			return errors.Wrap(err, "query orders")
		}
		if len(orderIDs) > 0 {
			if err := tx.Where("order_id IN ?", orderIDs).Delete(&domain.Payment{}).Error; err != nil {
				return errors.Wrap(err, "delete payments")
			}
		}
		for _, model := range []interface{}{&domain.Order{}, &domain.CartLine{}, &domain.Feedback{}, &domain.Complaint{}} {
			if err := tx.Where("customer_id = ?", customerID).Delete(model).Error; err != nil {
				return errors.Wrap(err, "delete customer rows")
			}
		}
		if err := tx.Where("id = ?", customerID).Delete(&domain.Customer{}).Error; err != nil {
			return errors.Wrap(err, "delete customer")
		}
		if err := tx.Where("id = ?", customer.IdentityID).Delete(&domain.Identity{}).Error; err != nil {
			return errors.Wrap(err, "delete identity")
		}
		return nil
	})
	if err != nil {
		return err
	}
	zap.L().Info("customer deleted", zap.String("namespace", "account"), zap.Int64("customer_id", customerID))
	return nil
}

// EnsureAdmin creates the default admin, or repairs its role and profile
func (s *Service) EnsureAdmin(ctx context.Context, seed AdminSeed) error {
	if strings.TrimSpace(seed.Username) == "" || seed.Password == "" {
		return domain.NewValidationError("admin_user", "admin username and password are required")
	}
	db := s.db.WithContext(ctx)

	var identity domain.Identity
	err := db.Where("username = ?", seed.Username).First(&identity).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
		if err != nil {
			return errors.Wrap(err, "hash password")
		}
		identity = domain.Identity{
			ID:       common.UUIDint64(),
			Username: seed.Username,
			Password: string(hash),
			Role:     domain.RoleAdmin,
		}
		if err := db.Create(&identity).Error; err != nil {
			return errors.Wrap(err, "create admin identity")
		}
		zap.L().Info("initialized default admin account", zap.String("username", seed.Username))
	case err != nil:
		return errors.Wrap(err, "query admin identity")
	case identity.Role != domain.RoleAdmin || strings.TrimSpace(identity.Password) == "":
		updates := map[string]interface{}{"role": domain.RoleAdmin, "updated_at": time.Now()}
		if strings.TrimSpace(identity.Password) == "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
			if err != nil {
				return errors.Wrap(err, "hash password")
			}
			updates["password"] = string(hash)
		}
		if err := db.Model(&domain.Identity{}).Where("id = ?", identity.ID).Updates(updates).Error; err != nil {
			return errors.Wrap(err, "repair admin identity")
		}
		zap.L().Warn("repaired default admin account", zap.String("username", seed.Username))
	}

	var profiles int64
	if err := db.Model(&domain.Admin{}).Where("identity_id = ?", identity.ID).Count(&profiles).Error; err != nil {
		return errors.Wrap(err, "query admin profile")
	}
	if profiles == 0 {
		email := seed.Email
		if common.IsEmptyOrNA(email) {
			email = "N/A"
		}
		if err := db.Create(&domain.Admin{ID: common.UUIDint64(), IdentityID: identity.ID, Email: email}).Error; err != nil {
			return errors.Wrap(err, "create admin profile")
		}
	}
	return nil
}
