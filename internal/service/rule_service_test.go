package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/peerflow/gamify-api/internal/dto"
	"github.com/peerflow/gamify-api/internal/repository"
)

func newRuleTestServices(t *testing.T, name string) (*gorm.DB, RuleService, ConstraintService) {
	t.Helper()
	db := newEngineTestDB(t, name)
	validate := validator.New(validator.WithRequiredStructEnabled())
	constraintRepo := repository.NewConstraintRepository(db)
	rules := NewRuleService(repository.NewRuleRepository(db), constraintRepo, validate, zerolog.Nop())
	constraints := NewConstraintService(constraintRepo, validate, zerolog.Nop())
	return db, rules, constraints
}

func TestConstraintCRUD(t *testing.T) {
	_, _, svc := newRuleTestServices(t, "constraint_crud")
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.ConstraintCreateRequest{URL: "forum/post", Threshold: 5})
	require.NoError(t, err)
	require.Equal(t, "action", created.Kind, "kind defaults to action")

	byURL, err := svc.GetByURL(ctx, "forum/post")
	require.NoError(t, err)
	require.Equal(t, created.ID, byURL.ID)

	threshold := 8.0
	updated, err := svc.Update(ctx, created.ID, dto.ConstraintUpdateRequest{Threshold: &threshold})
	require.NoError(t, err)
	require.Equal(t, 8.0, updated.Threshold)

	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, svc.Delete(ctx, created.ID))
	require.ErrorIs(t, svc.Delete(ctx, created.ID), ErrConstraintNotFound)

	_, err = svc.Create(ctx, dto.ConstraintCreateRequest{URL: "bad/threshold", Threshold: 0})
	require.Error(t, err, "threshold must be positive")
}

func TestRuleAttachAndDetachConstraint(t *testing.T) {
	_, rules, constraints := newRuleTestServices(t, "rule_attach")
	ctx := context.Background()

	constraint, err := constraints.Create(ctx, dto.ConstraintCreateRequest{URL: "review/submit", Threshold: 2})
	require.NoError(t, err)

	rule, err := rules.Create(ctx, dto.RuleCreateRequest{Name: "Diligent Reviewer"})
	require.NoError(t, err)

	attached, err := rules.AttachConstraint(ctx, rule.ID, dto.RuleAttachConstraintRequest{ConstraintID: constraint.ID})
	require.NoError(t, err)
	require.Len(t, attached.Constraints, 1)
	require.Equal(t, constraint.ID, attached.Constraints[0].ID)

	_, err = rules.AttachConstraint(ctx, rule.ID, dto.RuleAttachConstraintRequest{ConstraintID: 9999})
	require.ErrorIs(t, err, ErrConstraintNotFound)

	_, err = rules.AttachConstraint(ctx, 9999, dto.RuleAttachConstraintRequest{ConstraintID: constraint.ID})
	require.ErrorIs(t, err, ErrRuleNotFound)

	require.NoError(t, rules.DetachConstraint(ctx, rule.ID, constraint.ID))
	require.ErrorIs(t, rules.DetachConstraint(ctx, rule.ID, constraint.ID), ErrRuleConstraintNotFound)

	detached, err := rules.Get(ctx, rule.ID)
	require.NoError(t, err)
	require.Empty(t, detached.Constraints)
}

func TestRuleUpdateAppliesPartialChanges(t *testing.T) {
	_, rules, _ := newRuleTestServices(t, "rule_update")
	ctx := context.Background()

	rule, err := rules.Create(ctx, dto.RuleCreateRequest{Name: "Original", Description: "before"})
	require.NoError(t, err)

	name := "Renamed"
	updated, err := rules.Update(ctx, rule.ID, dto.RuleUpdateRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
	require.Equal(t, "before", updated.Description, "unset fields keep their values")

	require.NoError(t, rules.Delete(ctx, rule.ID))
	_, err = rules.Get(ctx, rule.ID)
	require.ErrorIs(t, err, ErrRuleNotFound)
}
