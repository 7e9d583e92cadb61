package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cafeledger/internal/model"
	"cafeledger/internal/repository"
	"cafeledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	OrderNumber   string           `json:"order_number" binding:"required"`
	TenantID      string           `json:"tenant_id"`
	BranchID      string           `json:"branch_id" binding:"required"`
	Status        string           `json:"status"`
	CustomerName  string           `json:"customer_name"`
	CustomerPhone string           `json:"customer_phone"`
	PaymentMethod string           `json:"payment_method"`
	Items         []OrderLineInput `json:"items" binding:"required,min=1"`
}

type OrderService interface {
	// CreateOrder persists the order with every line's cost frozen at this moment.
	CreateOrder(ctx context.Context, userID string, req CreateOrderRequest) (*model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
}

type orderService struct {
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	costing     CostingService
}

func NewOrderService(
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	costing CostingService,
) OrderService {
	return &orderService{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		costing:     costing,
	}
}

var orderStatuses = map[string]bool{
	model.OrderStatusPending:   true,
	model.OrderStatusCompleted: true,
	model.OrderStatusDelivered: true,
	model.OrderStatusCancelled: true,
}

func (s *orderService) CreateOrder(ctx context.Context, userID string, req CreateOrderRequest) (*model.Order, error) {
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if status == "" {
		status = model.OrderStatusCompleted
	}
	if !orderStatuses[status] {
		return nil, apperror.NewValidationError("", []apperror.FieldError{
			{Field: "status", Code: apperror.CodeInvalid, Message: fmt.Sprintf("unknown order status %q", req.Status)},
		})
	}

	cogs, err := s.costing.CalculateOrderCOGS(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	productIDs := make([]uuid.UUID, 0, len(req.Items))
	for _, item := range req.Items {
		id, _ := uuid.Parse(item.ProductID)
		productIDs = append(productIDs, id)
	}
	products, err := s.productRepo.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	order := &model.Order{
		TenantID:      req.TenantID,
		BranchID:      req.BranchID,
		OrderNumber:   req.OrderNumber,
		Status:        status,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		PaymentMethod: req.PaymentMethod,
		CreatedBy:     parseOptionalUserID(userID),
	}

	total := decimal.Zero
	for i, item := range req.Items {
		product := products[productIDs[i]]
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Sub(item.DiscountAmount)
		total = total.Add(line)
		order.Items = append(order.Items, model.OrderItem{
			ProductID:      productIDs[i],
			NameAr:         product.NameAr,
			Category:       product.Category,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			DiscountAmount: item.DiscountAmount,
			TaxRate:        item.TaxRate,
			CostSnapshot:   cogs.ItemSnapshots[i],
		})
	}
	order.TotalAmount = total.Round(2)

	// An order with no costed line has unknown, not zero, cost.
	if cogs.LinesCosted > 0 {
		cost := cogs.TotalCOGS
		profit, margin := calculateProfit(order.TotalAmount, cost)
		order.CostOfGoods = &cost
		order.ProfitAmount = &profit
		order.ProfitMargin = &margin
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orderRepo.Create(txCtx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		details := map[string]interface{}{
			"order_number":  order.OrderNumber,
			"branch_id":     order.BranchID,
			"total_amount":  order.TotalAmount.StringFixed(2),
			"lines":         len(order.Items),
			"lines_costed":  cogs.LinesCosted,
			"cost_of_goods": cogs.TotalCOGS.StringFixed(2),
		}
		return writeAuditLog(txCtx, s.auditRepo, userID, model.ActionCreateOrder, order.ID.String(), order.OrderNumber, details)
	})
	if errors.Is(err, repository.ErrConflict) {
		return nil, apperror.NewConflictError(apperror.ReasonOrderExists, fmt.Sprintf("order %s already exists", req.OrderNumber))
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	orderID, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if repository.IsNotFound(err) {
		return nil, apperror.NewNotFoundError(apperror.ReasonOrderNotFound, "order")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}
