package service

import (
	"context"
	"testing"

	"cafeledger/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAuditLogs(t *testing.T) {
	audit := &fakeAuditRepo{}
	userID := uuid.New()
	require.NoError(t, audit.Log(context.Background(), &model.AuditLog{Action: model.ActionCreateOrder, UserID: &userID}))
	require.NoError(t, audit.Log(context.Background(), &model.AuditLog{Action: model.ActionIssueInvoice}))

	logs, total, err := NewAuditService(audit).GetAuditLogs(context.Background(), model.ActionIssueInvoice, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, logs, 1)
	assert.Equal(t, "system", logs[0].UserID)

	logs, _, err = NewAuditService(audit).GetAuditLogs(context.Background(), "", 1, 20)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, userID.String(), logs[1].UserID)
}
