package report

import (
	"context"
	"fmt"
	"io"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"github.com/diamondaura/storefront/internal/auth"
	"github.com/diamondaura/storefront/internal/checkout"
	"github.com/diamondaura/storefront/internal/domain"
)

const (
	salesSheet   = "Sales by category"
	revenueSheet = "Monthly revenue"
)

// OrderRow one line of the orders CSV export
type OrderRow struct {
	OrderID    string  `csv:"order_id"`
	CreatedAt  string  `csv:"created_at"`
	Status     string  `csv:"status"`
	Customer   string  `csv:"customer"`
	ShipTo     string  `csv:"address"`
	Product    string  `csv:"product"`
	Price      float64 `csv:"price"`
	Quantity   int     `csv:"quantity"`
	LineTotal  float64 `csv:"line_total"`
	CustomerID string  `csv:"customer_id"`
}

// WriteWorkbook writes both reports as an xlsx workbook
func (s *Service) WriteWorkbook(ctx context.Context, who *auth.Principal, w io.Writer) error {
	sales, err := s.SalesByCategory(ctx, who)
	if err != nil {
		return err
	}
	months, err := s.MonthlyRevenue(ctx, who)
	if err != nil {
		return err
	}

	xlsx := excelize.NewFile()
	xlsx.SetSheetName("Sheet1", salesSheet)
	for col, title := range []string{"Category", "Orders", "Revenue"} {
		xlsx.SetCellValue(salesSheet, fmt.Sprintf("%c1", 'A'+col), title)
	}
	for i, row := range sales {
		line := i + 2
		xlsx.SetCellValue(salesSheet, fmt.Sprintf("A%d", line), row.Category)
		xlsx.SetCellValue(salesSheet, fmt.Sprintf("B%d", line), row.Orders)
		xlsx.SetCellValue(salesSheet, fmt.Sprintf("C%d", line), row.Revenue.InexactFloat64())
	}

	xlsx.NewSheet(revenueSheet)
	for col, title := range []string{"Month", "Orders", "Revenue"} {
		xlsx.SetCellValue(revenueSheet, fmt.Sprintf("%c1", 'A'+col), title)
	}
	for i, row := range months {
		line := i + 2
		xlsx.SetCellValue(revenueSheet, fmt.Sprintf("A%d", line), row.Month)
		xlsx.SetCellValue(revenueSheet, fmt.Sprintf("B%d", line), row.Orders)
		xlsx.SetCellValue(revenueSheet, fmt.Sprintf("C%d", line), row.Revenue.InexactFloat64())
	}
	return errors.Wrap(xlsx.Write(w), "write workbook")
}

// WriteOrdersCSV exports the orders matching filter, newest first
func (s *Service) WriteOrdersCSV(ctx context.Context, who *auth.Principal, filter checkout.OrderFilter, w io.Writer) error {
	if err := auth.RequireAdmin(who); err != nil {
		return err
	}
	query := s.db.WithContext(ctx).Preload("Customer")
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	var orders []domain.Order
	if err := query.Order("created_at DESC").Order("id DESC").Find(&orders).Error; err != nil {
		return errors.Wrap(err, "query orders")
	}

	rows := make([]*OrderRow, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, &OrderRow{
			OrderID:    fmt.Sprintf("%d", o.ID),
			CreatedAt:  o.CreatedAt.Format("2006-01-02 15:04:05"),
			Status:     string(o.Status),
			Customer:   o.Name,
			ShipTo:     o.Address,
			Product:    o.Description,
			Price:      o.Price,
			Quantity:   o.Quantity,
			LineTotal:  o.LineTotal(),
			CustomerID: fmt.Sprintf("%d", o.CustomerID),
		})
	}
	return errors.Wrap(gocsv.Marshal(rows, w), "write orders csv")
}
