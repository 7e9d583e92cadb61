package service

import (
	"context"
	"testing"

	"cafeledger/internal/events"
	"cafeledger/internal/model"
	"cafeledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *cafeFixture) addVanilla() model.ProductAddon {
	rawID := f.syrup.ID
	addon := model.ProductAddon{
		ID:              uuid.New(),
		ExternalID:      "101",
		NameAr:          "فانيلا",
		Price:           dec("2"),
		RawItemID:       &rawID,
		QuantityPerUnit: decPtr("15"), // ml
	}
	f.addons.addons = append(f.addons.addons, addon)
	return addon
}

func TestCalculateModifiersCost(t *testing.T) {
	f := newCafeFixture()
	vanilla := f.addVanilla()
	whipped := model.ProductAddon{ID: uuid.New(), ExternalID: "102", NameAr: "كريمة", Price: dec("1.5")}
	f.addons.addons = append(f.addons.addons, whipped)

	res, err := f.costingService().CalculateModifiersCost(context.Background(), []ModifierSelection{
		{ModifierID: "101", Quantity: 2},
		{ModifierID: whipped.ID.String(), Quantity: 0},
	})
	require.NoError(t, err)

	assert.True(t, res.Success)
	require.Len(t, res.Modifiers, 2)
	assert.Equal(t, vanilla.ID.String(), res.Modifiers[0].ModifierID)
	assert.Equal(t, "0.60", res.Modifiers[0].RecipeCost.StringFixed(2))
	assert.Equal(t, "4.00", res.Modifiers[0].PriceImpact.StringFixed(2))
	// quantity below one counts as one, and an addon without a raw item costs nothing
	assert.Equal(t, 1, res.Modifiers[1].Quantity)
	assert.True(t, res.Modifiers[1].RecipeCost.IsZero())
	assert.Equal(t, "0.60", res.TotalCost.StringFixed(2))
	assert.Equal(t, "5.50", res.PriceImpact.StringFixed(2))
}

func TestCalculateModifiersCostSkipsUnknownModifier(t *testing.T) {
	f := newCafeFixture()
	f.addVanilla()

	res, err := f.costingService().CalculateModifiersCost(context.Background(), []ModifierSelection{
		{ModifierID: "does-not-exist", Quantity: 1},
		{ModifierID: "101", Quantity: 1},
	})
	require.NoError(t, err)

	assert.False(t, res.Success)
	require.Len(t, res.Modifiers, 1)
	assert.Equal(t, "0.30", res.TotalCost.StringFixed(2))
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "does-not-exist")
	assert.Len(t, f.events.ofType(events.ModifierUnknown), 1)
}

func TestCalculateModifiersCostDeletedRawItemCostsZero(t *testing.T) {
	f := newCafeFixture()
	f.addVanilla()
	f.rawItems.remove(f.syrup.ID)

	res, err := f.costingService().CalculateModifiersCost(context.Background(), []ModifierSelection{{ModifierID: "101", Quantity: 1}})
	require.NoError(t, err)

	assert.False(t, res.Success)
	require.Len(t, res.Modifiers, 1)
	assert.True(t, res.Modifiers[0].RecipeCost.IsZero())
	assert.Equal(t, "2.00", res.Modifiers[0].PriceImpact.StringFixed(2))
	assert.Equal(t, "2.00", res.PriceImpact.StringFixed(2))
	assert.True(t, res.TotalCost.IsZero())
	assert.Len(t, f.events.ofType(events.RawItemMissing), 1)
}

func TestBuildSnapshotTwoUnits(t *testing.T) {
	f := newCafeFixture()
	recipe := f.seedRecipe(t, f.latte, ing(f.beans, "18", "g"))

	snap, err := f.costingService().BuildSnapshot(context.Background(), SnapshotInput{
		ProductID:        f.latte.ID,
		UnitSellingPrice: dec("15"),
		Quantity:         2,
	})
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, recipe.ID, snap.RecipeID)
	assert.Equal(t, 1, snap.RecipeVersion)
	assert.Equal(t, "0.90", snap.UnitRecipeCost.StringFixed(2))
	assert.Equal(t, "1.80", snap.TotalCost.StringFixed(2))
	assert.Equal(t, "30.00", snap.SellingPrice.StringFixed(2))
	assert.Equal(t, "28.20", snap.ProfitAmount.StringFixed(2))
	assert.Equal(t, "94.00", snap.ProfitMargin.StringFixed(2))
	assert.Empty(t, snap.Modifiers)
	assert.False(t, snap.SnapshotTime.IsZero())

	// profit always equals selling price minus total cost
	assert.True(t, snap.ProfitAmount.Equal(snap.SellingPrice.Sub(snap.TotalCost)))
	assert.True(t, snap.TotalCost.Equal(snap.BaseRecipeCost.Add(snap.ModifiersCost)))
}

func TestBuildSnapshotWithModifiers(t *testing.T) {
	f := newCafeFixture()
	f.seedRecipe(t, f.latte, ing(f.beans, "18", "g"))
	f.addVanilla()

	snap, err := f.costingService().BuildSnapshot(context.Background(), SnapshotInput{
		ProductID:        f.latte.ID,
		UnitSellingPrice: dec("15"),
		Quantity:         2,
		Modifiers:        []ModifierSelection{{ModifierID: "101", Quantity: 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, "0.30", snap.UnitModifiersCost.StringFixed(2))
	assert.Equal(t, "1.20", snap.UnitTotalCost.StringFixed(2))
	assert.Equal(t, "0.60", snap.ModifiersCost.StringFixed(2))
	assert.Equal(t, "2.40", snap.TotalCost.StringFixed(2))
	assert.Equal(t, "27.60", snap.ProfitAmount.StringFixed(2))
	assert.Equal(t, "92.00", snap.ProfitMargin.StringFixed(2))
}

func TestBuildSnapshotWithoutRecipe(t *testing.T) {
	f := newCafeFixture()

	snap, err := f.costingService().BuildSnapshot(context.Background(), SnapshotInput{
		ProductID:        f.latte.ID,
		UnitSellingPrice: dec("15"),
		Quantity:         1,
	})
	require.NoError(t, err)
	assert.Nil(t, snap)
	assert.Len(t, f.events.ofType(events.RecipeMissing), 1)
}

func TestBuildSnapshotRecordsDeletedModifierRawItemAtZero(t *testing.T) {
	f := newCafeFixture()
	f.seedRecipe(t, f.latte, ing(f.beans, "18", "g"))
	f.addVanilla()
	f.rawItems.remove(f.syrup.ID)

	snap, err := f.costingService().BuildSnapshot(context.Background(), SnapshotInput{
		ProductID:        f.latte.ID,
		UnitSellingPrice: dec("15"),
		Quantity:         1,
		Modifiers:        []ModifierSelection{{ModifierID: "101", Quantity: 1}},
	})
	require.NoError(t, err)

	require.Len(t, snap.Modifiers, 1)
	assert.True(t, snap.Modifiers[0].RecipeCost.IsZero())
	assert.Equal(t, "2.00", snap.Modifiers[0].PriceImpact.StringFixed(2))
	assert.Equal(t, "0.90", snap.TotalCost.StringFixed(2))
}

func TestBuildSnapshotFallsBackToStoredRecipeCost(t *testing.T) {
	f := newCafeFixture()
	f.seedRecipe(t, f.latte, ing(f.beans, "18", "g"), ing(f.milk, "200", "ml"))
	f.rawItems.remove(f.milk.ID)

	snap, err := f.costingService().BuildSnapshot(context.Background(), SnapshotInput{
		ProductID:        f.latte.ID,
		UnitSellingPrice: dec("15"),
		Quantity:         1,
	})
	require.NoError(t, err)

	assert.Equal(t, "1.70", snap.UnitRecipeCost.StringFixed(2))
	assert.Len(t, snap.Ingredients, 2)
	assert.Len(t, f.events.ofType(events.RecipeCostFallback), 1)
}

func TestBuildSnapshotIsFrozen(t *testing.T) {
	f := newCafeFixture()
	f.seedRecipe(t, f.latte, ing(f.beans, "18", "g"))
	costing := f.costingService()
	in := SnapshotInput{ProductID: f.latte.ID, UnitSellingPrice: dec("15"), Quantity: 1}

	first, err := costing.BuildSnapshot(context.Background(), in)
	require.NoError(t, err)

	f.rawItems.setCost(f.beans.ID, dec("0.10"))
	second, err := costing.BuildSnapshot(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "0.90", first.TotalCost.StringFixed(2))
	assert.Equal(t, "1.80", second.TotalCost.StringFixed(2))
}

func TestCalculateOrderCOGS(t *testing.T) {
	f := newCafeFixture()
	f.seedRecipe(t, f.latte, ing(f.beans, "18", "g"))
	cake := model.Product{ID: uuid.New(), NameAr: "كعكة", Category: "food", Price: dec("10")}
	require.NoError(t, f.products.Create(context.Background(), &cake))

	res, err := f.costingService().CalculateOrderCOGS(context.Background(), []OrderLineInput{
		{ProductID: f.latte.ID.String(), Quantity: 2, UnitPrice: dec("15")},
		{ProductID: cake.ID.String(), Quantity: 1, UnitPrice: dec("10")},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.LinesCosted)
	require.Len(t, res.ItemSnapshots, 2)
	assert.NotNil(t, res.ItemSnapshots[0])
	assert.Nil(t, res.ItemSnapshots[1])
	assert.Equal(t, "1.80", res.TotalCOGS.StringFixed(2))
	assert.Equal(t, "40.00", res.TotalRevenue.StringFixed(2))
	assert.Equal(t, "38.20", res.TotalProfit.StringFixed(2))
	assert.Equal(t, "95.50", res.ProfitMargin.StringFixed(2))
}

func TestCalculateOrderCOGSValidatesLines(t *testing.T) {
	f := newCafeFixture()

	_, err := f.costingService().CalculateOrderCOGS(context.Background(), []OrderLineInput{
		{ProductID: "nope", Quantity: 0, UnitPrice: dec("-1")},
	})
	appErr := apperror.GetAppError(err)
	require.Equal(t, apperror.ReasonValidation, appErr.Reason)
	assert.Len(t, appErr.Errors, 3)

	_, err = f.costingService().CalculateOrderCOGS(context.Background(), nil)
	assert.True(t, apperror.HasReason(err, apperror.ReasonValidation))
}

func TestCalculateProfit(t *testing.T) {
	tests := []struct {
		name           string
		selling, cost  string
		profit, margin string
	}{
		{"typical", "30", "1.80", "28.20", "94.00"},
		{"loss", "10", "12", "-2.00", "-20.00"},
		{"zero cost", "10", "0", "10.00", "0.00"},
		{"zero selling", "0", "3", "-3.00", "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profit, margin := calculateProfit(dec(tt.selling), dec(tt.cost))
			assert.Equal(t, tt.profit, profit.StringFixed(2))
			assert.Equal(t, tt.margin, margin.StringFixed(2))
		})
	}
}
