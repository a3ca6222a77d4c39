package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCategory(t *testing.T) {
	tests := []struct {
		name    string
		id      CategoryID
		catName string
		wantErr bool
	}{
		{name: "id only", id: CategoryPersonalFood},
		{name: "english name", id: CategoryPersonalFood, catName: "personal / food"},
		{name: "japanese name", id: CategoryMeetingExpense, catName: "会議費"},
		{name: "unknown id", id: "groceries", wantErr: true},
		{name: "mismatched name", id: CategoryTravel, catName: "Meals", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := ResolveCategory(tt.id, tt.catName)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnknownCategory))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, cat.ID)
		})
	}
}

func TestCategories_Sorted(t *testing.T) {
	cats := Categories()
	require.NotEmpty(t, cats)
	for i := 1; i < len(cats); i++ {
		assert.Less(t, string(cats[i-1].ID), string(cats[i].ID))
	}
}

func TestMustCategory_PanicsOnUnknown(t *testing.T) {
	assert.Panics(t, func() { MustCategory("nope") })
	assert.NotPanics(t, func() { MustCategory(CategoryMiscellaneous) })
}

func TestClassificationResult_NeedsReview(t *testing.T) {
	c := NewCandidate(StrategyFallback, CategoryMiscellaneous, false, 0.1, "fallback")
	assert.True(t, ClassificationResult(*c).NeedsReview(0.5))

	c = NewCandidate(StrategyKeyword, CategoryMeetingExpense, true, 0.63, "keyword")
	assert.False(t, ClassificationResult(*c).NeedsReview(0.5))
	assert.Equal(t, "Meeting Expense", c.CategoryName)
}
