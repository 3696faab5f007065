package feedback_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fusionhub.org/internal/feedback"
	"fusionhub.org/internal/store/memory"
)

func newEngine(t *testing.T) (*feedback.Engine, *memory.Store) {
	t.Helper()
	store := memory.New()
	return feedback.NewEngine(store.Feedback()), store
}

func createFeedback(t *testing.T, e *feedback.Engine, tenantID string) *feedback.Feedback {
	t.Helper()
	fb, err := e.Create(context.Background(), tenantID, "user-1", feedback.CreateInput{
		ProjectID: "proj-1",
		Title:     "Search is slow",
		Content:   "Queries time out on large workspaces.",
	})
	require.NoError(t, err)
	return fb
}

func TestCreateDefaults(t *testing.T) {
	e, _ := newEngine(t)
	fb := createFeedback(t, e, "tenant-1")

	assert.Equal(t, feedback.StatusNew, fb.Status)
	assert.Equal(t, feedback.PriorityMedium, fb.Priority)
	assert.Equal(t, feedback.SourceCustomer, fb.Source)
	assert.False(t, fb.Converted)
	assert.NotEmpty(t, fb.ID)
}

func TestCreateValidation(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	_, err := e.Create(ctx, "tenant-1", "user-1", feedback.CreateInput{Title: "x"})
	assert.ErrorIs(t, err, feedback.ErrInvalidInput)

	_, err = e.Create(ctx, "tenant-1", "user-1", feedback.CreateInput{ProjectID: "proj-1"})
	assert.ErrorIs(t, err, feedback.ErrInvalidInput)

	_, err = e.Create(ctx, "tenant-1", "user-1", feedback.CreateInput{
		ProjectID: "proj-1", Title: "x", Priority: "URGENT",
	})
	assert.ErrorIs(t, err, feedback.ErrInvalidInput)

	_, err = e.Create(ctx, "tenant-1", "user-1", feedback.CreateInput{
		ProjectID: "proj-1", Title: "x", Source: "EMAIL",
	})
	assert.ErrorIs(t, err, feedback.ErrInvalidInput)
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from feedback.Status
		to   feedback.Status
		ok   bool
	}{
		{feedback.StatusNew, feedback.StatusTriaged, true},
		{feedback.StatusNew, feedback.StatusClosed, true},
		{feedback.StatusTriaged, feedback.StatusClosed, true},
		{feedback.StatusTriaged, feedback.StatusNew, false},
		{feedback.StatusClosed, feedback.StatusNew, false},
		{feedback.StatusClosed, feedback.StatusTriaged, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			e, _ := newEngine(t)
			ctx := context.Background()
			fb := createFeedback(t, e, "tenant-1")

			// Walk the item into the starting state first.
			if tc.from != feedback.StatusNew {
				from := tc.from
				_, err := e.Update(ctx, "tenant-1", fb.ID, feedback.UpdateInput{Status: &from})
				require.NoError(t, err)
			}

			to := tc.to
			updated, err := e.Update(ctx, "tenant-1", fb.ID, feedback.UpdateInput{Status: &to})
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, tc.to, updated.Status)
			} else {
				assert.ErrorIs(t, err, feedback.ErrInvalidTransition)
			}
		})
	}
}

func TestUpdateSameStatusIsNoop(t *testing.T) {
	e, _ := newEngine(t)
	fb := createFeedback(t, e, "tenant-1")

	status := feedback.StatusNew
	updated, err := e.Update(context.Background(), "tenant-1", fb.ID, feedback.UpdateInput{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, feedback.StatusNew, updated.Status)
}

func TestUpdateUnknownStatus(t *testing.T) {
	e, _ := newEngine(t)
	fb := createFeedback(t, e, "tenant-1")

	bogus := feedback.Status("ARCHIVED")
	_, err := e.Update(context.Background(), "tenant-1", fb.ID, feedback.UpdateInput{Status: &bogus})
	assert.ErrorIs(t, err, feedback.ErrInvalidInput)
}

func TestTenantIsolation(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	fb := createFeedback(t, e, "tenant-1")

	// Another tenant sees not-found, never forbidden.
	_, err := e.Get(ctx, "tenant-2", fb.ID)
	assert.ErrorIs(t, err, feedback.ErrNotFound)

	title := "hijack"
	_, err = e.Update(ctx, "tenant-2", fb.ID, feedback.UpdateInput{Title: &title})
	assert.ErrorIs(t, err, feedback.ErrNotFound)

	err = e.Delete(ctx, "tenant-2", fb.ID)
	assert.ErrorIs(t, err, feedback.ErrNotFound)

	_, err = e.ConvertToTask(ctx, "tenant-2", fb.ID, "user-2")
	assert.ErrorIs(t, err, feedback.ErrNotFound)

	items, err := e.List(ctx, "tenant-2")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestConvertToTask(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()
	fb := createFeedback(t, e, "tenant-1")

	status := feedback.StatusTriaged
	_, err := e.Update(ctx, "tenant-1", fb.ID, feedback.UpdateInput{Status: &status})
	require.NoError(t, err)

	task, err := e.ConvertToTask(ctx, "tenant-1", fb.ID, "user-9")
	require.NoError(t, err)
	assert.Equal(t, fb.ID, task.FeedbackID)
	assert.Equal(t, fb.ProjectID, task.ProjectID)
	assert.Equal(t, fb.Title, task.Title)
	assert.Equal(t, "user-9", task.CreatedBy)

	// Conversion flips the flag but leaves the workflow status alone.
	after, err := e.Get(ctx, "tenant-1", fb.ID)
	require.NoError(t, err)
	assert.True(t, after.Converted)
	assert.Equal(t, feedback.StatusTriaged, after.Status)

	stored, err := store.Tasks().Get(ctx, "tenant-1", task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, stored.ID)
}

func TestConvertTwice(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	fb := createFeedback(t, e, "tenant-1")

	_, err := e.ConvertToTask(ctx, "tenant-1", fb.ID, "user-1")
	require.NoError(t, err)

	_, err = e.ConvertToTask(ctx, "tenant-1", fb.ID, "user-1")
	assert.ErrorIs(t, err, feedback.ErrAlreadyConverted)
}

func TestConvertClosed(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	fb := createFeedback(t, e, "tenant-1")

	status := feedback.StatusClosed
	_, err := e.Update(ctx, "tenant-1", fb.ID, feedback.UpdateInput{Status: &status})
	require.NoError(t, err)

	_, err = e.ConvertToTask(ctx, "tenant-1", fb.ID, "user-1")
	assert.ErrorIs(t, err, feedback.ErrInvalidTransition)
}

func TestConvertConcurrent(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	fb := createFeedback(t, e, "tenant-1")

	const racers = 16
	var wg sync.WaitGroup
	errs := make([]error, racers)
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.ConvertToTask(ctx, "tenant-1", fb.ID, "user-1")
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		default:
			assert.ErrorIs(t, err, feedback.ErrAlreadyConverted)
			conflicts++
		}
	}
	assert.Equal(t, 1, wins, "exactly one racer may convert")
	assert.Equal(t, racers-1, conflicts)
}

func TestDeleteConvertedKeepsTask(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()
	fb := createFeedback(t, e, "tenant-1")

	task, err := e.ConvertToTask(ctx, "tenant-1", fb.ID, "user-1")
	require.NoError(t, err)

	require.NoError(t, e.Delete(ctx, "tenant-1", fb.ID))

	_, err = e.Get(ctx, "tenant-1", fb.ID)
	assert.ErrorIs(t, err, feedback.ErrNotFound)

	// The task outlives the feedback that spawned it.
	stored, err := store.Tasks().Get(ctx, "tenant-1", task.ID)
	require.NoError(t, err)
	assert.Equal(t, fb.ID, stored.FeedbackID)
}
