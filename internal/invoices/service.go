package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	customer "github.com/angelmondragon/tally-backend/internal/customers"
	product "github.com/angelmondragon/tally-backend/internal/products"
	"github.com/angelmondragon/tally-backend/pkg/config"
	"github.com/angelmondragon/tally-backend/pkg/db"
	"github.com/angelmondragon/tally-backend/pkg/db/models"
	"github.com/angelmondragon/tally-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tally-backend/pkg/errors"
	"github.com/angelmondragon/tally-backend/pkg/logger"
	"github.com/angelmondragon/tally-backend/pkg/metrics"
	"github.com/angelmondragon/tally-backend/pkg/outbox"
	"github.com/angelmondragon/tally-backend/pkg/outbox/payloads"
)

const tracerName = "github.com/angelmondragon/tally-backend/internal/invoices"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service creates invoices and reads them back.
type Service interface {
	CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*InvoiceDTO, error)
	GetInvoice(ctx context.Context, id uint64) (*InvoiceDTO, error)
	ListInvoices(ctx context.Context) ([]InvoiceDTO, error)
	ListInvoicesByCustomer(ctx context.Context, customerID uint64) ([]InvoiceDTO, error)
}

// LineRequest asks for quantity units of one product.
type LineRequest struct {
	ProductID uint64
	Quantity  int
}

// CreateInvoiceInput is the invoice request. Lines are processed in order and
// a product may appear on more than one line.
type CreateInvoiceInput struct {
	CustomerID uint64
	Items      []LineRequest
}

type service struct {
	repo      *Repository
	products  *product.Repository
	customers *customer.Repository
	tx        txRunner
	outbox    outboxPublisher
	metrics   *metrics.InvoiceMetrics
	logg      *logger.Logger
	cfg       config.InvoiceConfig
	now       func() time.Time
}

// NewService builds the invoice service. A nil metrics recorder disables metrics.
func NewService(
	repo *Repository,
	products *product.Repository,
	customers *customer.Repository,
	tx txRunner,
	publisher outboxPublisher,
	invoiceMetrics *metrics.InvoiceMetrics,
	logg *logger.Logger,
	cfg config.InvoiceConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("invoice repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if customers == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		products:  products,
		customers: customers,
		tx:        tx,
		outbox:    publisher,
		metrics:   invoiceMetrics,
		logg:      logg,
		cfg:       cfg,
		now:       time.Now,
	}, nil
}

func (s *service) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*InvoiceDTO, error) {
	started := s.now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "invoice.create",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int64("invoice.customer_id", int64(input.CustomerID)),
			attribute.Int("invoice.line_count", len(input.Items)),
		),
	)
	defer span.End()

	result, err := s.createInvoice(ctx, input)

	outcome := outcomeFor(err)
	s.metrics.ObserveAttempt(outcome, s.now().Sub(started))
	span.SetAttributes(attribute.String("invoice.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("invoice.id", int64(result.ID)))
	span.SetStatus(codes.Ok, "")
	return result, nil
}

func (s *service) createInvoice(ctx context.Context, input CreateInvoiceInput) (*InvoiceDTO, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}
	ctx = s.logg.WithCustomerID(ctx, input.CustomerID)

	buyer, err := s.customers.FindByID(ctx, input.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound(pkgerrors.KindCustomer, input.CustomerID)
		}
		return nil, pkgerrors.Persistence(err, "load customer")
	}

	txCtx := ctx
	if s.cfg.TxTimeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(ctx, s.cfg.TxTimeout)
		defer cancel()
	}

	var (
		committed *models.Invoice
		units     int
		depleted  int
	)
	err = s.tx.WithTx(txCtx, func(tx *gorm.DB) error {
		ledger := s.products.WithTx(tx)

		invoice := &models.Invoice{
			CustomerID:    buyer.ID,
			CustomerName:  buyer.Name,
			CustomerEmail: buyer.Email,
			InvoiceDate:   s.now().UTC(),
			Items:         make([]models.InvoiceItem, 0, len(input.Items)),
		}
		var emptied []*models.Product
		seenEmpty := map[uint64]bool{}
		lineProducts := make([]*models.Product, 0, len(input.Items))

		for i, line := range input.Items {
			current, err := ledger.FindByIDForUpdate(txCtx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.NotFound(pkgerrors.KindProduct, line.ProductID)
				}
				return err
			}
			if current.Stock < line.Quantity {
				return pkgerrors.InsufficientStock(current.ID, current.Name, line.Quantity, current.Stock)
			}

			updated, err := ledger.DecrementStock(txCtx, current.ID, line.Quantity)
			if err != nil {
				if errors.Is(err, product.ErrStockUnderflow) {
					return pkgerrors.InsufficientStock(current.ID, current.Name, line.Quantity, current.Stock)
				}
				return err
			}

			price := current.Price
			lineTotal := price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			invoice.Total = invoice.Total.Add(lineTotal)
			invoice.Items = append(invoice.Items, models.InvoiceItem{
				ProductID:   current.ID,
				Position:    i + 1,
				Quantity:    line.Quantity,
				PriceAtSale: price,
				LineTotal:   lineTotal,
			})
			lineProducts = append(lineProducts, updated)
			units += line.Quantity

			if updated.Stock == 0 && !seenEmpty[updated.ID] {
				seenEmpty[updated.ID] = true
				emptied = append(emptied, updated)
			}
		}

		if err := s.repo.WithTx(tx).Create(txCtx, invoice); err != nil {
			if db.IsForeignKeyViolation(err) {
				return pkgerrors.NotFound(pkgerrors.KindCustomer, buyer.ID)
			}
			return err
		}
		invoice.Customer = buyer
		for i := range invoice.Items {
			invoice.Items[i].Product = lineProducts[i]
		}

		if err := s.emitInvoiceCreated(txCtx, tx, invoice); err != nil {
			return err
		}
		for _, p := range emptied {
			if err := s.emitStockDepleted(txCtx, tx, invoice.ID, p); err != nil {
				return err
			}
		}

		committed = invoice
		depleted = len(emptied)
		return nil
	})
	if err != nil {
		return nil, s.mapTxError(ctx, err)
	}

	ctx = s.logg.WithInvoiceID(ctx, committed.ID)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"total": committed.Total.StringFixed(2),
		"lines": len(input.Items),
		"units": units,
	}), "invoice created")

	s.metrics.AddCommitted(units, committed.Total.InexactFloat64())
	for i := 0; i < depleted; i++ {
		s.metrics.IncDepleted()
	}

	// past the commit a reload failure falls back to the in-memory graph
	created, err := s.repo.FindByID(ctx, committed.ID)
	if err != nil {
		s.logg.Error(ctx, "invoice reload failed, returning committed snapshot", err)
		return NewInvoiceDTO(committed), nil
	}
	return NewInvoiceDTO(created), nil
}

func (s *service) GetInvoice(ctx context.Context, id uint64) (*InvoiceDTO, error) {
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound(pkgerrors.KindInvoice, id)
		}
		return nil, pkgerrors.Persistence(err, "load invoice")
	}
	return NewInvoiceDTO(invoice), nil
}

func (s *service) ListInvoices(ctx context.Context) ([]InvoiceDTO, error) {
	invoices, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Persistence(err, "list invoices")
	}
	return newInvoiceDTOs(invoices), nil
}

func (s *service) ListInvoicesByCustomer(ctx context.Context, customerID uint64) ([]InvoiceDTO, error) {
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound(pkgerrors.KindCustomer, customerID)
		}
		return nil, pkgerrors.Persistence(err, "load customer")
	}
	invoices, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Persistence(err, "list customer invoices")
	}
	return newInvoiceDTOs(invoices), nil
}

func (s *service) validate(input CreateInvoiceInput) error {
	if input.CustomerID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "customerId is required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	if s.cfg.MaxItems > 0 && len(input.Items) > s.cfg.MaxItems {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d items are allowed", s.cfg.MaxItems))
	}
	for i, line := range input.Items {
		if line.ProductID == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d].productId is required", i))
		}
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d].quantity must be a positive integer", i))
		}
	}
	return nil
}

func (s *service) emitInvoiceCreated(ctx context.Context, tx *gorm.DB, invoice *models.Invoice) error {
	lines := make([]payloads.InvoiceLine, 0, len(invoice.Items))
	for _, item := range invoice.Items {
		lines = append(lines, payloads.InvoiceLine{
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			PriceAtSale: item.PriceAtSale.StringFixed(2),
			LineTotal:   item.LineTotal.StringFixed(2),
		})
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventInvoiceCreated,
		AggregateType: enums.AggregateInvoice,
		AggregateID:   invoice.ID,
		Data: payloads.InvoiceCreatedEvent{
			InvoiceID:     invoice.ID,
			CustomerID:    invoice.CustomerID,
			CustomerEmail: invoice.CustomerEmail,
			InvoiceDate:   invoice.InvoiceDate,
			Total:         invoice.Total.StringFixed(2),
			Lines:         lines,
		},
		OccurredAt: invoice.InvoiceDate,
	})
}

func (s *service) emitStockDepleted(ctx context.Context, tx *gorm.DB, invoiceID uint64, p *models.Product) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventProductStockDepleted,
		AggregateType: enums.AggregateProduct,
		AggregateID:   p.ID,
		Data: payloads.ProductStockDepletedEvent{
			ProductID:   p.ID,
			ProductName: p.Name,
			InvoiceID:   invoiceID,
		},
	})
}

// mapTxError keeps typed domain errors and reports everything else as a
// persistence failure. The transaction has already been rolled back.
func (s *service) mapTxError(ctx context.Context, err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		if typed.Code() == pkgerrors.CodeInsufficientStock {
			s.logg.Warn(s.logg.WithField(ctx, "details", typed.Details()), "invoice rejected: "+typed.Message())
		}
		return typed
	}
	if db.IsLockConflict(err) {
		s.logg.Warn(ctx, "invoice transaction lost a lock conflict: "+err.Error())
		return pkgerrors.Persistence(err, "invoice transaction lost a lock conflict, retry the request")
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logg.Warn(ctx, "invoice transaction aborted: "+err.Error())
		return pkgerrors.Persistence(err, "invoice transaction aborted")
	}
	s.logg.Error(ctx, "invoice transaction failed", err)
	return pkgerrors.Persistence(err, "invoice transaction failed")
}

func outcomeFor(err error) string {
	if err == nil {
		return metrics.OutcomeCreated
	}
	switch pkgerrors.As(err).Code() {
	case pkgerrors.CodeValidation:
		return metrics.OutcomeInvalid
	case pkgerrors.CodeNotFound:
		return metrics.OutcomeNotFound
	case pkgerrors.CodeInsufficientStock:
		return metrics.OutcomeInsufficientStock
	default:
		return metrics.OutcomeError
	}
}
