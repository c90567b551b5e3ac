package report

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/diamondaura/storefront/internal/auth"
	"github.com/diamondaura/storefront/internal/checkout"
	"github.com/diamondaura/storefront/internal/domain"
	"github.com/diamondaura/storefront/internal/testdb"
	"github.com/diamondaura/storefront/pkg/common"
)

var admin = &auth.Principal{IdentityID: 1, Username: "admin", Role: domain.RoleAdmin}

type seeded struct {
	db    *gorm.DB
	rings *domain.Category
	neck  *domain.Category
}

func seed(t *testing.T) *seeded {
	t.Helper()
	db := testdb.Open(t)
	rings := &domain.Category{ID: common.UUIDint64(), Name: "Rings"}
	neck := &domain.Category{ID: common.UUIDint64(), Name: "Necklaces"}
	require.NoError(t, db.Create(rings).Error)
	require.NoError(t, db.Create(neck).Error)
	ring := domain.Product{ID: common.UUIDint64(), CategoryID: rings.ID, Name: "Ring", Price: 100}
	necklace := domain.Product{ID: common.UUIDint64(), CategoryID: neck.ID, Name: "Necklace", Price: 400}
	require.NoError(t, db.Create(&ring).Error)
	require.NoError(t, db.Create(&necklace).Error)
	require.NoError(t, db.Create(&domain.Customer{ID: 7, IdentityID: 8, Name: "Kavya"}).Error)

	order := func(productID int64, price float64, qty int, st domain.OrderStatus, at time.Time) {
		require.NoError(t, db.Create(&domain.Order{
			ID: common.UUIDint64(), CustomerID: 7, ProductID: productID, Name: "Kavya", Address: "Goa",
			Description: "item", Price: price, Quantity: qty, Status: st, CreatedAt: at,
		}).Error)
	}
	feb := time.Date(2024, time.February, 10, 12, 0, 0, 0, time.UTC)
	jan := time.Date(2024, time.January, 20, 12, 0, 0, 0, time.UTC)
	order(ring.ID, 100, 3, domain.OrderDelivered, feb)
	order(ring.ID, 100, 1, domain.OrderDelivered, jan)
	order(necklace.ID, 400, 1, domain.OrderDelivered, feb)
	order(necklace.ID, 400, 1, domain.OrderPending, jan)
	order(ring.ID, 100, 1, domain.OrderRejected, feb)
	return &seeded{db: db, rings: rings, neck: neck}
}

func TestSalesByCategory(t *testing.T) {
	s := seed(t)
	svc := NewService(s.db)

	rows, err := svc.SalesByCategory(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Necklaces", rows[0].Category)
	assert.True(t, rows[0].Revenue.Equal(decimal.NewFromInt(400)))
	assert.EqualValues(t, 1, rows[0].Orders)
	// price per order, quantity is not multiplied in
	assert.Equal(t, "Rings", rows[1].Category)
	assert.True(t, rows[1].Revenue.Equal(decimal.NewFromInt(200)), rows[1].Revenue.String())
	assert.EqualValues(t, 2, rows[1].Orders)
}

func TestMonthlyRevenueAscending(t *testing.T) {
	s := seed(t)
	svc := NewService(s.db)

	months, err := svc.MonthlyRevenue(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, months, 2)
	assert.Equal(t, "2024-01", months[0].Month)
	assert.True(t, months[0].Revenue.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "2024-02", months[1].Month)
	assert.True(t, months[1].Revenue.Equal(decimal.NewFromInt(500)))
	assert.EqualValues(t, 2, months[1].Orders)
}

func TestRevenueReportsAgree(t *testing.T) {
	db := testdb.Open(t)
	rings := domain.Category{ID: common.UUIDint64(), Name: "Rings"}
	require.NoError(t, db.Create(&rings).Error)
	ring := domain.Product{ID: common.UUIDint64(), CategoryID: rings.ID, Name: "Ring", Price: 0.1}
	require.NoError(t, db.Create(&ring).Error)
	at := time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)
	for _, price := range []float64{0.1, 0.2} {
		require.NoError(t, db.Create(&domain.Order{
			ID: common.UUIDint64(), CustomerID: 7, ProductID: ring.ID, Name: "Kavya",
			Description: "Ring", Price: price, Quantity: 1, Status: domain.OrderDelivered, CreatedAt: at,
		}).Error)
	}
	svc := NewService(db)
	ctx := context.Background()
	want := decimal.RequireFromString("0.3")

	sales, err := svc.SalesByCategory(ctx, admin)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.True(t, sales[0].Revenue.Equal(want), sales[0].Revenue.String())

	months, err := svc.MonthlyRevenue(ctx, admin)
	require.NoError(t, err)
	require.Len(t, months, 1)
	assert.True(t, months[0].Revenue.Equal(want), months[0].Revenue.String())

	d, err := svc.Dashboard(ctx, admin)
	require.NoError(t, err)
	assert.True(t, d.DeliveredRevenue.Equal(want), d.DeliveredRevenue.String())
}

func TestReportsRequireAdmin(t *testing.T) {
	svc := NewService(testdb.Open(t))
	customer := &auth.Principal{IdentityID: 2, Role: domain.RoleCustomer, CustomerID: 3}
	_, err := svc.SalesByCategory(context.Background(), customer)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.MonthlyRevenue(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, svc.WriteWorkbook(context.Background(), nil, &bytes.Buffer{}), domain.ErrForbidden)
}

func TestDashboard(t *testing.T) {
	s := seed(t)
	require.NoError(t, s.db.Create(&domain.Feedback{ID: common.UUIDint64(), CustomerID: 7, Description: "nice"}).Error)
	svc := NewService(s.db)

	d, err := svc.Dashboard(context.Background(), admin)
	require.NoError(t, err)
	assert.EqualValues(t, 2, d.Products)
	assert.EqualValues(t, 5, d.Orders)
	assert.EqualValues(t, 1, d.PendingOrders)
	assert.EqualValues(t, 1, d.Customers)
	assert.True(t, d.DeliveredRevenue.Equal(decimal.NewFromInt(600)), d.DeliveredRevenue.String())
	assert.True(t, d.AverageOrder.Equal(decimal.NewFromInt(200)), d.AverageOrder.String())
	assert.Len(t, d.RecentOrders, 5)
	assert.Len(t, d.RecentFeedback, 1)
	assert.Empty(t, d.RecentComplaints)
}

func TestDashboardEmptyStore(t *testing.T) {
	svc := NewService(testdb.Open(t))
	d, err := svc.Dashboard(context.Background(), admin)
	require.NoError(t, err)
	assert.True(t, d.DeliveredRevenue.IsZero())
	assert.True(t, d.AverageOrder.IsZero())
}

func TestWriteWorkbook(t *testing.T) {
	s := seed(t)
	svc := NewService(s.db)

	var buf bytes.Buffer
	require.NoError(t, svc.WriteWorkbook(context.Background(), admin, &buf))

	xlsx, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, "Category", xlsx.GetCellValue(salesSheet, "A1"))
	assert.Equal(t, "Necklaces", xlsx.GetCellValue(salesSheet, "A2"))
	assert.Equal(t, "2024-01", xlsx.GetCellValue(revenueSheet, "A2"))
	assert.Equal(t, "2024-02", xlsx.GetCellValue(revenueSheet, "A3"))
}

func TestWriteOrdersCSV(t *testing.T) {
	s := seed(t)
	svc := NewService(s.db)

	delivered := domain.OrderDelivered
	var buf bytes.Buffer
	require.NoError(t, svc.WriteOrdersCSV(context.Background(), admin, checkout.OrderFilter{Status: &delivered}, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "order_id,created_at,status,customer"))
	for _, line := range lines[1:] {
		assert.Contains(t, line, ",Delivered,Kavya,")
	}
	assert.Contains(t, buf.String(), ",100,3,300,")
}
