package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/diamondaura/storefront/internal/auth"
	"github.com/diamondaura/storefront/internal/domain"
	"github.com/diamondaura/storefront/internal/testdb"
	"github.com/diamondaura/storefront/pkg/common"
)

func registerInput(username string) RegisterInput {
	return RegisterInput{
		Username: username,
		Password: "sparkle123",
		Name:     "Asha Rao",
		Email:    "asha@example.com",
		Phone:    "9876543210",
		Address:  "12 MG Road, Pune",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := NewService(testdb.Open(t))
	ctx := context.Background()

	p, err := svc.Register(ctx, registerInput("asha"))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, p.Role)
	assert.NotZero(t, p.CustomerID)
	assert.False(t, svc.IsAdmin(p))

	got, err := svc.Login(ctx, "asha", "sparkle123")
	require.NoError(t, err)
	assert.Equal(t, p.IdentityID, got.IdentityID)
	assert.Equal(t, p.CustomerID, got.CustomerID)

	resolved, err := svc.Resolve(ctx, p.IdentityID)
	require.NoError(t, err)
	assert.Equal(t, "asha", resolved.Username)
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	svc := NewService(testdb.Open(t))
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("asha"))
	require.NoError(t, err)
	_, err = svc.Register(ctx, registerInput("asha"))
	require.Error(t, err)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "username", ve.Field)
}

func TestRegisterUsernameRaceIsValidation(t *testing.T) {
	db := testdb.Open(t)
	svc := NewService(db)

	// another writer claims the username between the existence check and the insert
	err := db.Callback().Create().Before("gorm:create").Register("test:claim_username", func(tx *gorm.DB) {
		identity, ok := tx.Statement.Dest.(*domain.Identity)
		if !ok || tx.Statement.Schema == nil || tx.Statement.Schema.Table != "identity" {
			return
		}
		_, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context,
			"INSERT INTO identity (id, username, password, role) VALUES (?, ?, ?, ?)",
			common.UUIDint64(), identity.Username, "x", domain.RoleCustomer)
		if err != nil {
			_ = tx.AddError(err)
		}
	})
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), registerInput("asha"))
	require.NoError(t, db.Callback().Create().Remove("test:claim_username"))

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "username", ve.Field)
}

func TestRegisterRequiresFields(t *testing.T) {
	svc := NewService(testdb.Open(t))
	in := registerInput("asha")
	in.Phone = "  "

	_, err := svc.Register(context.Background(), in)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "phone", ve.Field)
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	svc := NewService(testdb.Open(t))
	ctx := context.Background()
	_, err := svc.Register(ctx, registerInput("asha"))
	require.NoError(t, err)

	_, err = svc.Login(ctx, "asha", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody", "sparkle123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginUnknownUserStillComparesHash(t *testing.T) {
	svc := NewService(testdb.Open(t))
	ctx := context.Background()
	_, err := svc.Register(ctx, registerInput("asha"))
	require.NoError(t, err)

	var calls int
	compareHash = func(hash, password []byte) error {
		calls++
		return bcrypt.CompareHashAndPassword(hash, password)
	}
	t.Cleanup(func() { compareHash = bcrypt.CompareHashAndPassword })

	_, err = svc.Login(ctx, "nobody", "sparkle123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Equal(t, 1, calls)

	_, err = svc.Login(ctx, "asha", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Equal(t, 2, calls)
}

func TestUpdateProfileKeepsMissingFields(t *testing.T) {
	svc := NewService(testdb.Open(t))
	ctx := context.Background()
	p, err := svc.Register(ctx, registerInput("asha"))
	require.NoError(t, err)

	phone := " 9000000000 "
	empty := ""
	c, err := svc.UpdateProfile(ctx, p, ProfileUpdate{Phone: &phone, Address: &empty})
	require.NoError(t, err)
	assert.Equal(t, "9000000000", c.Phone)
	assert.Equal(t, "Asha Rao", c.Name)
	assert.Equal(t, "12 MG Road, Pune", c.Address)

	_, err = svc.UpdateProfile(ctx, nil, ProfileUpdate{Phone: &phone})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	db := testdb.Open(t)
	svc := NewService(db)
	ctx := context.Background()
	seed := AdminSeed{Username: "admin", Password: "diamondaura", Email: "admin@example.com"}

	require.NoError(t, svc.EnsureAdmin(ctx, seed))
	require.NoError(t, svc.EnsureAdmin(ctx, seed))

	var admins int64
	require.NoError(t, db.Model(&domain.Admin{}).Count(&admins).Error)
	assert.EqualValues(t, 1, admins)

	p, err := svc.Login(ctx, "admin", "diamondaura")
	require.NoError(t, err)
	assert.True(t, svc.IsAdmin(p))
	assert.Zero(t, p.CustomerID)
}

func TestAdminOnlyOperations(t *testing.T) {
	svc := NewService(testdb.Open(t))
	ctx := context.Background()
	customer, err := svc.Register(ctx, registerInput("asha"))
	require.NoError(t, err)

	_, err = svc.ListCustomers(ctx, customer)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, svc.DeleteCustomer(ctx, customer, customer.CustomerID), domain.ErrForbidden)
}

func TestDeleteCustomerCascades(t *testing.T) {
	db := testdb.Open(t)
	svc := NewService(db)
	ctx := context.Background()
	admin := &auth.Principal{IdentityID: 1, Username: "admin", Role: domain.RoleAdmin}

	keep, err := svc.Register(ctx, registerInput("keep"))
	require.NoError(t, err)
	gone, err := svc.Register(ctx, registerInput("gone"))
	require.NoError(t, err)

	for _, p := range []*auth.Principal{keep, gone} {
		orderID := common.UUIDint64()
		require.NoError(t, db.Create(&domain.Order{ID: orderID, CustomerID: p.CustomerID, ProductID: 7,
			Name: "Ring", Price: 100, Quantity: 1, Status: domain.OrderPending}).Error)
		require.NoError(t, db.Create(&domain.Payment{ID: common.UUIDint64(), OrderID: orderID, Method: domain.PaymentUPI}).Error)
		require.NoError(t, db.Create(&domain.CartLine{ID: common.UUIDint64(), CustomerID: p.CustomerID, ProductID: 7, Quantity: 1}).Error)
		require.NoError(t, db.Create(&domain.Feedback{ID: common.UUIDint64(), CustomerID: p.CustomerID, Description: "lovely", CreatedAt: time.Now()}).Error)
		require.NoError(t, db.Create(&domain.Complaint{ID: common.UUIDint64(), CustomerID: p.CustomerID, ProductID: 7, Description: "scratched"}).Error)
	}

	require.NoError(t, svc.DeleteCustomer(ctx, admin, gone.CustomerID))
	assert.ErrorIs(t, svc.DeleteCustomer(ctx, admin, gone.CustomerID), domain.ErrNotFound)

	customers, err := svc.ListCustomers(ctx, admin)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, keep.CustomerID, customers[0].ID)
	require.NotNil(t, customers[0].Identity)
	assert.Equal(t, "keep", customers[0].Identity.Username)

	for _, model := range []interface{}{&domain.Order{}, &domain.Payment{}, &domain.CartLine{}, &domain.Feedback{}, &domain.Complaint{}} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.EqualValues(t, 1, n, "%T", model)
	}
	_, err = svc.Login(ctx, "gone", "sparkle123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}
