package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"retail-ops-api/internal/adapters/storage"
	"retail-ops-api/internal/auth"
	"retail-ops-api/internal/models"
	"retail-ops-api/internal/repositories"
)

// exportService implements the ExportService interface
type exportService struct {
	manager repositories.RepositoryManager
	files   storage.FileStorage
}

// NewExportService creates a new export service instance. The file storage
// is optional; without it, exports are returned inline only.
func NewExportService(manager repositories.RepositoryManager, files storage.FileStorage) ExportService {
	return &exportService{
		manager: manager,
		files:   files,
	}
}

// Section names accepted by Export
const (
	SectionSales         = "sales"
	SectionProducts      = "products"
	SectionUsers         = "users"
	SectionDemandNotices = "demand_notices"
	SectionQuotations    = "quotations"
)

// Export renders the requested sections as one CSV document: one block per
// section separated by a blank line, every cell double-quoted with embedded
// quotes doubled, currency fixed to two decimals. The artifact is persisted
// through file storage when configured and always returned inline.
func (s *exportService) Export(ctx context.Context, actor *models.User, req *ExportRequest) (*ExportResult, error) {
	if !auth.Can(actor, auth.ActionExportReports) {
		return nil, NewPermissionError("not allowed to export reports")
	}

	if req == nil || len(req.Sections) == 0 {
		return nil, NewValidationError("at least one export section is required")
	}

	var blocks []string
	for _, section := range req.Sections {
		block, err := s.renderSection(ctx, section, req.Start, req.End)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	content := strings.Join(blocks, "\n\n")
	filename := fmt.Sprintf("export_%s_%s.csv",
		req.Start.Format("20060102"), req.End.Format("20060102"))

	result := &ExportResult{
		Filename: filename,
		Content:  content,
	}

	if s.files != nil {
		key := "exports/" + filename
		err := s.files.Store(ctx, key, []byte(content), &storage.StoreOptions{
			ContentType: "text/csv",
			Overwrite:   true,
		})
		if err != nil {
			return nil, &ServiceError{Kind: KindInternal, Message: "failed to persist export artifact", Err: err}
		}
		result.Path = key
	}

	return result, nil
}

func (s *exportService) renderSection(ctx context.Context, section string, start, end time.Time) (string, error) {
	switch section {
	case SectionSales:
		return s.renderSales(ctx, start, end)
	case SectionProducts:
		return s.renderProducts(ctx)
	case SectionUsers:
		return s.renderUsers(ctx)
	case SectionDemandNotices:
		return s.renderDemandNotices(ctx, start, end)
	case SectionQuotations:
		return s.renderQuotations(ctx)
	default:
		return "", NewValidationError("unknown export section %q", section)
	}
}

func (s *exportService) renderSales(ctx context.Context, start, end time.Time) (string, error) {
	filters := repositories.OrderFilters{}
	if !start.IsZero() {
		filters.CreatedAfter = &start
	}
	if !end.IsZero() {
		filters.CreatedBefore = &end
	}

	orders, err := s.manager.Orders().List(ctx, filters)
	if err != nil {
		return "", WrapRepositoryError("failed to list orders", err)
	}

	rows := [][]string{{"Order ID", "Customer", "Status", "Subtotal", "Discount", "Total", "Paid", "Balance", "Created"}}
	for _, order := range orders {
		rows = append(rows, []string{
			order.ID,
			order.CustomerName,
			order.Status.DisplayLabel(),
			currencyCell(order.Subtotal),
			currencyCell(order.DiscountAmount),
			currencyCell(order.TotalAmount),
			currencyCell(order.TotalPaid()),
			currencyCell(order.RemainingBalance()),
			order.CreatedAt.Format(time.RFC3339),
		})
	}
	return renderCSVBlock(rows), nil
}

func (s *exportService) renderProducts(ctx context.Context) (string, error) {
	products, err := s.manager.Products().List(ctx, repositories.ProductFilters{})
	if err != nil {
		return "", WrapRepositoryError("failed to list products", err)
	}

	rows := [][]string{{"SKU", "Name", "Category", "Price", "Effective Price", "In Stock"}}
	for _, product := range products {
		rows = append(rows, []string{
			product.SKU,
			product.Name,
			product.Category,
			currencyCell(product.Price),
			currencyCell(product.EffectivePrice()),
			strconv.Itoa(product.QuantityInStock),
		})
	}
	return renderCSVBlock(rows), nil
}

func (s *exportService) renderUsers(ctx context.Context) (string, error) {
	users, err := s.manager.Users().List(ctx)
	if err != nil {
		return "", WrapRepositoryError("failed to list users", err)
	}

	rows := [][]string{{"Username", "Role", "Created"}}
	for _, user := range users {
		rows = append(rows, []string{
			user.Username,
			user.Role.DisplayLabel(),
			user.CreatedAt.Format(time.RFC3339),
		})
	}
	return renderCSVBlock(rows), nil
}

func (s *exportService) renderDemandNotices(ctx context.Context, start, end time.Time) (string, error) {
	filters := repositories.DemandNoticeFilters{}
	if !start.IsZero() {
		filters.CreatedAfter = &start
	}
	if !end.IsZero() {
		filters.CreatedBefore = &end
	}

	notices, err := s.manager.DemandNotices().List(ctx, filters)
	if err != nil {
		return "", WrapRepositoryError("failed to list demand notices", err)
	}

	rows := [][]string{{"Notice ID", "Product", "SKU", "Requested", "Fulfilled", "Agreed Price", "Advance Paid", "Status", "Salesperson"}}
	for _, notice := range notices {
		rows = append(rows, []string{
			notice.ID,
			notice.ProductName,
			notice.ProductSKU,
			strconv.Itoa(notice.QuantityRequested),
			strconv.Itoa(notice.QuantityFulfilled),
			currencyCell(notice.AgreedPrice),
			currencyCell(notice.TotalAdvancePaid()),
			notice.StatusDisplayLabel(),
			notice.SalespersonName,
		})
	}
	return renderCSVBlock(rows), nil
}

func (s *exportService) renderQuotations(ctx context.Context) (string, error) {
	quotations, err := s.manager.Quotations().List(ctx, repositories.QuotationFilters{})
	if err != nil {
		return "", WrapRepositoryError("failed to list quotations", err)
	}

	rows := [][]string{{"Quotation ID", "Customer", "Status", "Items", "Total"}}
	for _, quotation := range quotations {
		rows = append(rows, []string{
			quotation.ID,
			quotation.CustomerName,
			quotation.Status.DisplayLabel(),
			strconv.Itoa(len(quotation.Items)),
			currencyCell(quotation.TotalAmount),
		})
	}
	return renderCSVBlock(rows), nil
}

// renderCSVBlock renders rows as CSV. Every cell is double-quoted and
// embedded double quotes are doubled, so downstream spreadsheet tooling can
// rely on uniform quoting.
func renderCSVBlock(rows [][]string) string {
	var sb strings.Builder
	for i, row := range rows {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for j, cell := range row {
			if j > 0 {
				sb.WriteByte(',')
			}
			sb.WriteByte('"')
			sb.WriteString(strings.ReplaceAll(cell, `"`, `""`))
			sb.WriteByte('"')
		}
	}
	return sb.String()
}

// currencyCell formats a currency amount with exactly two decimals
func currencyCell(amount float64) string {
	return strconv.FormatFloat(models.RoundToTwoDecimals(amount), 'f', 2, 64)
}
