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

func TestRecordWaste(t *testing.T) {
	f := newCafeFixture()
	movements := &fakeMovementRepo{}
	svc := NewInventoryService(f.products, f.rawItems, f.addons, movements, f.audit, f.tx)
	ctx := context.Background()

	m, err := svc.RecordWaste(ctx, uuid.NewString(), RecordWasteRequest{
		BranchID:  "riyadh-01",
		RawItemID: f.milk.ID.String(),
		Quantity:  dec("250"),
		Unit:      "ml",
		Reason:    "spilled",
	})
	require.NoError(t, err)
	assert.Equal(t, model.MovementWaste, m.Type)
	assert.NotEqual(t, uuid.Nil, m.ID)
	require.Len(t, movements.movements, 1)
	assert.Equal(t, []string{model.ActionRecordWaste}, f.audit.actions())

	_, err = svc.RecordWaste(ctx, "", RecordWasteRequest{BranchID: "riyadh-01", RawItemID: f.milk.ID.String(), Quantity: dec("2"), Unit: "g"})
	appErr := apperror.GetAppError(err)
	require.Equal(t, apperror.ReasonValidation, appErr.Reason)
	assert.Equal(t, apperror.CodeUnsupportedUnit, appErr.Errors[0].Code)

	_, err = svc.RecordWaste(ctx, "", RecordWasteRequest{BranchID: "riyadh-01", RawItemID: uuid.NewString(), Quantity: dec("0"), Unit: "g"})
	assert.Len(t, apperror.GetAppError(err).Errors, 2)
	assert.Len(t, movements.movements, 1)
}

func TestGetProductsPaginates(t *testing.T) {
	f := newCafeFixture()
	for _, name := range []string{"أ", "ب", "ت"} {
		require.NoError(t, f.products.Create(context.Background(), &model.Product{NameAr: name}))
	}
	svc := NewInventoryService(f.products, f.rawItems, f.addons, &fakeMovementRepo{}, f.audit, f.tx)

	page, total, err := svc.GetProducts(context.Background(), 2, 3, "")
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, page, 1)
}
