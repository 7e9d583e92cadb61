package service

import (
	"context"
	"testing"

	"cafeledger/internal/model"
	"cafeledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *cafeFixture) orderService() OrderService {
	return NewOrderService(f.products, f.orders, f.audit, f.tx, f.costingService())
}

func TestCreateOrderFreezesLineCosts(t *testing.T) {
	f := newCafeFixture()
	f.seedRecipe(t, f.latte, ing(f.beans, "18", "g"))
	ctx := context.Background()

	order, err := f.orderService().CreateOrder(ctx, uuid.NewString(), CreateOrderRequest{
		OrderNumber: "POS-1001",
		BranchID:    "riyadh-01",
		Items:       []OrderLineInput{{ProductID: f.latte.ID.String(), Quantity: 2, UnitPrice: dec("15")}},
	})
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusCompleted, order.Status)
	assert.Equal(t, "30.00", order.TotalAmount.StringFixed(2))
	require.NotNil(t, order.CostOfGoods)
	assert.Equal(t, "1.80", order.CostOfGoods.StringFixed(2))
	assert.Equal(t, "28.20", order.ProfitAmount.StringFixed(2))
	assert.Equal(t, "94.00", order.ProfitMargin.StringFixed(2))

	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.Equal(t, f.latte.NameAr, item.NameAr)
	assert.Equal(t, "hot", item.Category)
	require.NotNil(t, item.CostSnapshot)
	assert.Equal(t, "1.80", item.CostSnapshot.TotalCost.StringFixed(2))

	// later raw item price changes do not reach the stored order
	f.rawItems.setCost(f.beans.ID, dec("0.50"))
	stored, err := f.orderService().GetOrder(ctx, order.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "1.80", stored.Items[0].CostSnapshot.TotalCost.StringFixed(2))
	assert.Equal(t, "1.80", stored.CostOfGoods.StringFixed(2))

	assert.Equal(t, []string{model.ActionCreateRecipeVersion, model.ActionCreateOrder}, f.audit.actions())
}

func TestCreateOrderWithoutRecipeHasUnknownCost(t *testing.T) {
	f := newCafeFixture()

	order, err := f.orderService().CreateOrder(context.Background(), "", CreateOrderRequest{
		OrderNumber: "POS-1002",
		BranchID:    "riyadh-01",
		Status:      "Delivered",
		Items: []OrderLineInput{{
			ProductID:      f.latte.ID.String(),
			Quantity:       1,
			UnitPrice:      dec("15"),
			DiscountAmount: dec("2.5"),
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusDelivered, order.Status)
	assert.Equal(t, "12.50", order.TotalAmount.StringFixed(2))
	assert.Nil(t, order.CostOfGoods)
	assert.Nil(t, order.ProfitAmount)
	assert.Nil(t, order.Items[0].CostSnapshot)
}

func TestCreateOrderRejectsDuplicateNumber(t *testing.T) {
	f := newCafeFixture()
	req := CreateOrderRequest{
		OrderNumber: "POS-1003",
		BranchID:    "riyadh-01",
		Items:       []OrderLineInput{{ProductID: f.latte.ID.String(), Quantity: 1, UnitPrice: dec("15")}},
	}

	_, err := f.orderService().CreateOrder(context.Background(), "", req)
	require.NoError(t, err)

	_, err = f.orderService().CreateOrder(context.Background(), "", req)
	assert.True(t, apperror.HasReason(err, apperror.ReasonOrderExists))
}

func TestCreateOrderRejectsUnknownStatus(t *testing.T) {
	f := newCafeFixture()

	_, err := f.orderService().CreateOrder(context.Background(), "", CreateOrderRequest{
		OrderNumber: "POS-1004",
		BranchID:    "riyadh-01",
		Status:      "refunded",
		Items:       []OrderLineInput{{ProductID: f.latte.ID.String(), Quantity: 1, UnitPrice: dec("15")}},
	})
	appErr := apperror.GetAppError(err)
	require.Equal(t, apperror.ReasonValidation, appErr.Reason)
	assert.Equal(t, "status", appErr.Errors[0].Field)
	assert.Empty(t, f.orders.orders)
}

func TestGetOrderNotFound(t *testing.T) {
	f := newCafeFixture()

	_, err := f.orderService().GetOrder(context.Background(), uuid.NewString())
	assert.True(t, apperror.HasReason(err, apperror.ReasonOrderNotFound))

	_, err = f.orderService().GetOrder(context.Background(), "not-an-id")
	assert.True(t, apperror.HasReason(err, apperror.ReasonValidation))
}
