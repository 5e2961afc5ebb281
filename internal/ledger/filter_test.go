package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activity(id string, t EntryType, category string, updated time.Time) Activity {
	return Activity{
		ID:              id,
		Kind:            KindTransaction,
		Type:            t,
		Amount:          dec("10"),
		Description:     "desc " + id,
		Category:        category,
		TransactionDate: updated,
		UpdatedAt:       updated,
	}
}

func TestFilterActivitiesTypeAndCategory(t *testing.T) {
	activities := []Activity{
		activity("a", EntryIncome, "Salary", day(1)),
		activity("b", EntryExpense, "Rent", day(2)),
		activity("c", EntryIncome, TransferCategory, day(3)),
	}

	got := FilterActivities(activities, Filter{Type: EntryIncome})
	require.Len(t, got, 2)

	got = FilterActivities(activities, Filter{Category: TransferCategory})
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)
}

func TestFilterActivitiesSearchCaseInsensitive(t *testing.T) {
	activities := []Activity{
		{ID: "a", Type: EntryIncome, Description: "Equipment purchase", Category: "Capex", UpdatedAt: day(1)},
		{ID: "b", Type: EntryIncome, Description: "misc", Category: "EQUIPMENT", UpdatedAt: day(1)},
		{ID: "c", Type: EntryIncome, Description: "rent", Category: "Opex", UpdatedAt: day(1)},
	}

	// Matches against description OR category, ignoring case.
	got := FilterActivities(activities, Filter{Search: "equipment"})
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
}

func TestFilterActivitiesConjunction(t *testing.T) {
	activities := []Activity{
		activity("a", EntryIncome, TransferCategory, day(1)),
		activity("b", EntryIncome, "Salary", day(2)),
		activity("c", EntryExpense, TransferCategory, day(3)),
	}

	both := FilterActivities(activities, Filter{Type: EntryIncome, Category: TransferCategory})

	// Sequential application must equal the combined predicate.
	sequential := FilterActivities(FilterActivities(activities, Filter{Type: EntryIncome}), Filter{Category: TransferCategory})
	swapped := FilterActivities(FilterActivities(activities, Filter{Category: TransferCategory}), Filter{Type: EntryIncome})

	assert.Equal(t, both, sequential)
	assert.Equal(t, both, swapped)
	require.Len(t, both, 1)
	assert.Equal(t, "a", both[0].ID)
}

func TestFilterActivitiesDateRangeInclusiveEndDay(t *testing.T) {
	// Updated late in the day on the end date: still included, the bound
	// is inclusive at day granularity.
	lateOnDay5 := time.Date(2025, time.March, 5, 23, 45, 0, 0, time.UTC)
	activities := []Activity{
		{ID: "edge", Type: EntryIncome, UpdatedAt: lateOnDay5},
		{ID: "after", Type: EntryIncome, UpdatedAt: day(6)},
	}

	start := day(1)
	end := day(5)
	got := FilterActivities(activities, Filter{StartDate: &start, EndDate: &end})
	require.Len(t, got, 1)
	assert.Equal(t, "edge", got[0].ID)
}

func TestFilterActivitiesExplicitRangeOverridesPreset(t *testing.T) {
	activities := []Activity{
		{ID: "old", Type: EntryIncome, UpdatedAt: day(1)},
		{ID: "recent", Type: EntryIncome, UpdatedAt: day(20)},
	}

	start := day(1)
	end := day(2)
	// Preset alone would keep only "recent"; the explicit range wins.
	got := FilterActivities(activities, Filter{StartDate: &start, EndDate: &end, Preset: PresetToday, Now: day(20)})
	require.Len(t, got, 1)
	assert.Equal(t, "old", got[0].ID)
}

func TestFilterActivitiesPresets(t *testing.T) {
	now := day(20)
	activities := []Activity{
		{ID: "today", Type: EntryIncome, UpdatedAt: day(20)},
		{ID: "week", Type: EntryIncome, UpdatedAt: day(15)},
		{ID: "month", Type: EntryIncome, UpdatedAt: day(1)},
	}

	assert.Len(t, FilterActivities(activities, Filter{Preset: PresetToday, Now: now}), 1)
	assert.Len(t, FilterActivities(activities, Filter{Preset: PresetWeek, Now: now}), 2)
	assert.Len(t, FilterActivities(activities, Filter{Preset: PresetMonth, Now: now}), 3)
}

func TestFilterActivitiesDoesNotMutateInput(t *testing.T) {
	activities := []Activity{activity("a", EntryIncome, "Salary", day(1))}
	got := FilterActivities(activities, Filter{})
	require.Len(t, got, 1)
	got[0].ID = "changed"
	assert.Equal(t, "a", activities[0].ID)
}
