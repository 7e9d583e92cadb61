package service

import (
	"context"
	"encoding/json"
	"fmt"

	"cafeledger/internal/model"
	"cafeledger/internal/repository"
	"cafeledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// calculateProfit is the single profit formula used by snapshots, orders and reports.
// Margin is 0 when either cost or selling price is 0.
func calculateProfit(sellingPrice, cost decimal.Decimal) (profit, margin decimal.Decimal) {
	profit = sellingPrice.Sub(cost)
	if cost.IsZero() || sellingPrice.IsZero() {
		return profit, decimal.Zero
	}
	return profit, profit.Div(sellingPrice).Mul(hundred).Round(2)
}

// percentOf returns part/whole*100 rounded to 2 places, or 0 when whole is 0.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}

func parseOptionalUserID(userID string) *uuid.UUID {
	if userID == "" {
		return nil
	}
	parsed, err := uuid.Parse(userID)
	if err != nil {
		return nil
	}
	return &parsed
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.NewValidationError("", []apperror.FieldError{
			{Field: field, Code: apperror.CodeInvalid, Message: fmt.Sprintf("%q is not a valid id", raw)},
		})
	}
	return id, nil
}

// writeAuditLog records the entry in ctx's transaction. Unlike the best-effort
// logging elsewhere, fiscal changes fail together with their audit row.
func writeAuditLog(ctx context.Context, repo repository.AuditRepository, userID, action, entityID, entityName string, details interface{}) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	entry := model.AuditLog{
		UserID:     parseOptionalUserID(userID),
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(detailsJSON),
	}
	if err := repo.Log(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
