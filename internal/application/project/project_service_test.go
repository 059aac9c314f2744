package project

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/project"
	"github.com/solarerp/backend/internal/domain/shared"
	"github.com/solarerp/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectService_QuoteFlow(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	svc := NewProjectService(testutil.NewMemQuotes(), testutil.NewMemProjects(), nil)

	q, err := svc.CreateQuote(ctx, tenantID, CreateQuoteInput{ClientID: uuid.New(), Name: "Galpao 75kWp", SalePrice: decimal.NewFromInt(310000)})
	require.NoError(t, err)
	assert.Equal(t, string(project.QuoteStatusDraft), q.Status)

	approved, err := svc.ApproveQuote(ctx, tenantID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, string(project.QuoteStatusApproved), approved.Status)

	_, err = svc.ApproveQuote(ctx, tenantID, q.ID)
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))

	_, err = svc.GetQuote(ctx, uuid.New(), q.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestProjectService_ProjectWithSiteAndTasks(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	q, err := project.NewQuote(tenantID, uuid.New(), "Casa", decimal.NewFromInt(1))
	require.NoError(t, err)
	p, err := project.NewProjectForQuote(q)
	require.NoError(t, err)
	projects := testutil.NewMemProjects(p)
	require.NoError(t, projects.SaveSite(ctx, project.NewConstructionSite(p, "Rua A 1")))
	svc := NewProjectService(testutil.NewMemQuotes(q), projects, nil)

	task, err := svc.AddTask(ctx, tenantID, p.ID, "Vistoria", nil)
	require.NoError(t, err)
	assert.Equal(t, string(project.TaskStatusTodo), task.Status)

	_, err = svc.AddTask(ctx, tenantID, p.ID, "  ", nil)
	assert.Error(t, err)

	got, err := svc.GetProject(ctx, tenantID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Project Casa", got.Name)
	assert.Equal(t, "Rua A 1", got.SiteAddress)
	require.Len(t, got.Tasks, 1)
	assert.Equal(t, "Vistoria", got.Tasks[0].Title)
}
