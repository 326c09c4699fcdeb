package task

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"
	"time"

	domain "github.com/example/todo-app/domain/task"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeClock advances one second on every reading.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 5, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := OpenDB(":memory:", &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: newFakeClock().Now,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// every pooled connection to :memory: would otherwise see its own empty database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	return db
}

func mustCreate(t *testing.T, repo *Repository, title, due string, completed bool) *domain.Task {
	t.Helper()

	fields := domain.Fields{Title: title, Completed: completed}
	if due != "" {
		d, err := domain.ParseDate(due)
		if err != nil {
			t.Fatalf("ParseDate(%q) error = %v", due, err)
		}
		fields.DueDate = &d
	}

	task, err := repo.Create(context.Background(), fields)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return task
}

func countTasks(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&domain.Task{}).Count(&n).Error; err != nil {
		t.Fatalf("count error: %v", err)
	}
	return n
}

func TestRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	task := mustCreate(t, repo, "Buy milk", "", false)

	if task.ID == 0 {
		t.Fatal("expected ID to be assigned")
	}
	if task.CreatedAt.IsZero() || task.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
	if task.UpdatedAt.Before(task.CreatedAt) {
		t.Errorf("UpdatedAt %v before CreatedAt %v", task.UpdatedAt, task.CreatedAt)
	}
	if task.Completed {
		t.Error("new task should not be completed")
	}

	var found domain.Task
	if err := db.First(&found, task.ID).Error; err != nil {
		t.Fatalf("failed to find created task: %v", err)
	}
	if found.Title != "Buy milk" {
		t.Errorf("expected title %q, got %q", "Buy milk", found.Title)
	}
	if found.DueDate != nil {
		t.Errorf("expected no due date, got %v", found.DueDate)
	}
}

func TestRepository_CreateBlankTitle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	_, err := repo.Create(context.Background(), domain.Fields{Title: "   "})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Create() error = %v, want ErrValidation", err)
	}
	if n := countTasks(t, db); n != 0 {
		t.Errorf("expected no rows, got %d", n)
	}
}

func TestRepository_DueDateRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	created := mustCreate(t, repo, "Pay rent", "2025-03-10", false)

	got, err := repo.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.DueDate == nil {
		t.Fatal("expected due date")
	}
	if s := got.DueDateString(); s != "2025-03-10" {
		t.Errorf("DueDateString() = %q, want %q", s, "2025-03-10")
	}
	want := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	if !got.DueDate.Equal(want) {
		t.Errorf("DueDate = %v, want %v", got.DueDate, want)
	}
}

func TestRepository_GetNotFound(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	_, err := repo.Get(context.Background(), 9999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := mustCreate(t, repo, "Buy milk", "2025-01-01", false)

	updated, err := repo.Update(ctx, created.ID, domain.Fields{
		Title:       "Buy oat milk",
		Description: "the barista one",
		Completed:   true,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Title != "Buy oat milk" || updated.Description != "the barista one" {
		t.Errorf("unexpected fields after update: %+v", updated)
	}
	if updated.DueDate != nil {
		t.Errorf("expected due date to be cleared, got %v", updated.DueDate)
	}
	if !updated.Completed {
		t.Error("expected completed to be true")
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", created.CreatedAt, updated.CreatedAt)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("UpdatedAt not refreshed: %v -> %v", created.UpdatedAt, updated.UpdatedAt)
	}

	reloaded, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if reloaded.Title != "Buy oat milk" || reloaded.DueDate != nil || !reloaded.Completed {
		t.Errorf("update not persisted: %+v", reloaded)
	}
}

func TestRepository_UpdateNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	mustCreate(t, repo, "Existing", "", false)

	_, err := repo.Update(context.Background(), 9999, domain.Fields{Title: "Ghost"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update() error = %v, want ErrNotFound", err)
	}
	if n := countTasks(t, db); n != 1 {
		t.Errorf("expected 1 row, got %d", n)
	}

	var existing domain.Task
	if err := db.First(&existing).Error; err != nil {
		t.Fatalf("First() error = %v", err)
	}
	if existing.Title != "Existing" {
		t.Errorf("existing task altered: %q", existing.Title)
	}
}

func TestRepository_Toggle(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	created := mustCreate(t, repo, "Walk dog", "", false)

	first, err := repo.Toggle(ctx, created.ID)
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if !first.Completed {
		t.Error("expected completed after first toggle")
	}
	if !first.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("first toggle did not refresh UpdatedAt")
	}

	second, err := repo.Toggle(ctx, created.ID)
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if second.Completed != created.Completed {
		t.Error("toggling twice should restore the original state")
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("second toggle did not refresh UpdatedAt")
	}
	if second.UpdatedAt.Before(second.CreatedAt) {
		t.Errorf("UpdatedAt %v before CreatedAt %v", second.UpdatedAt, second.CreatedAt)
	}
}

func TestRepository_ConcurrentToggles(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "todo.db"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	repo := NewRepository(db)
	ctx := context.Background()
	created := mustCreate(t, repo, "Contended", "", false)

	const writers = 50
	var g errgroup.Group
	for i := 0; i < writers; i++ {
		g.Go(func() error {
			_, err := repo.Toggle(ctx, created.ID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent Toggle() error = %v", err)
	}

	got, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	// an even number of serialized toggles restores the original state
	if got.Completed != created.Completed {
		t.Errorf("Completed = %v after %d toggles, want %v", got.Completed, writers, created.Completed)
	}
}

func TestRepository_ToggleNotFound(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	_, err := repo.Toggle(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Toggle() error = %v, want ErrNotFound", err)
	}
}

func TestRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first := mustCreate(t, repo, "First", "", false)
	second := mustCreate(t, repo, "Second", "", false)

	if err := repo.Delete(ctx, second.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Get(ctx, second.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, second.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}

	// hard delete leaves no row behind
	var n int64
	db.Unscoped().Model(&domain.Task{}).Where("id = ?", second.ID).Count(&n)
	if n != 0 {
		t.Errorf("expected row to be gone, found %d", n)
	}

	third := mustCreate(t, repo, "Third", "", false)
	if third.ID == second.ID || third.ID == first.ID {
		t.Errorf("id %d was reused", third.ID)
	}
}

func seedMixed(t *testing.T, repo *Repository) {
	t.Helper()
	mustCreate(t, repo, "pay bills", "2025-02-01", false)
	mustCreate(t, repo, "Call mom", "", true)
	mustCreate(t, repo, "buy milk", "2025-01-01", false)
	mustCreate(t, repo, "Answer email", "2025-03-15", true)
	mustCreate(t, repo, "water plants", "", false)
	mustCreate(t, repo, "book flights", "2025-01-01", true)
	mustCreate(t, repo, "Clean garage", "", false)
}

func TestRepository_ListFilter(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()
	seedMixed(t, repo)

	all, err := repo.List(ctx, domain.FilterAll, domain.SortCreated)
	if err != nil {
		t.Fatalf("List(all) error = %v", err)
	}
	if len(all) != 7 {
		t.Fatalf("List(all) returned %d tasks, want 7", len(all))
	}

	var wantPending, wantCompleted int
	for _, task := range all {
		if task.Completed {
			wantCompleted++
		} else {
			wantPending++
		}
	}

	tests := []struct {
		filter domain.Filter
		want   int
	}{
		{domain.FilterAll, 7},
		{domain.FilterPending, wantPending},
		{domain.FilterCompleted, wantCompleted},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			tasks, err := repo.List(ctx, tt.filter, domain.SortTitle)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(tasks) != tt.want {
				t.Errorf("List() returned %d tasks, want %d", len(tasks), tt.want)
			}
			for _, task := range tasks {
				if !tt.filter.Match(task) {
					t.Errorf("task %q (completed=%v) does not belong to %q", task.Title, task.Completed, tt.filter)
				}
			}

			n, err := repo.Count(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if n != int64(tt.want) {
				t.Errorf("Count() = %d, want %d", n, tt.want)
			}
		})
	}
}

func TestRepository_ListSortTitle(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	seedMixed(t, repo)

	tasks, err := repo.List(context.Background(), domain.FilterAll, domain.SortTitle)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	titles := make([]string, len(tasks))
	for i, task := range tasks {
		titles[i] = task.Title
	}
	if !sort.StringsAreSorted(titles) {
		t.Errorf("titles not sorted: %v", titles)
	}
}

func TestRepository_ListSortDueDate(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	seedMixed(t, repo)

	tasks, err := repo.List(context.Background(), domain.FilterAll, domain.SortDueDate)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	seenNull := false
	var prev *time.Time
	for _, task := range tasks {
		if task.DueDate == nil {
			seenNull = true
			continue
		}
		if seenNull {
			t.Fatalf("task %q with due date listed after a task without one", task.Title)
		}
		if prev != nil && task.DueDate.Before(*prev) {
			t.Errorf("due dates out of order: %v after %v", task.DueDate, prev)
		}
		prev = task.DueDate
	}
	if !seenNull {
		t.Error("expected tasks without due date in the listing")
	}
}

func TestRepository_ListSortCreated(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	seedMixed(t, repo)

	tasks, err := repo.List(context.Background(), domain.FilterAll, domain.SortCreated)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if tasks[0].Title != "Clean garage" {
		t.Errorf("newest task first: got %q, want %q", tasks[0].Title, "Clean garage")
	}
	for i := 1; i < len(tasks); i++ {
		if tasks[i].CreatedAt.After(tasks[i-1].CreatedAt) {
			t.Errorf("task %q created after %q but listed later", tasks[i].Title, tasks[i-1].Title)
		}
	}
}

func TestRepository_ListUnknownQuery(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	if _, err := repo.List(ctx, domain.Filter("archived"), domain.SortCreated); !errors.Is(err, domain.ErrUnknownFilter) {
		t.Errorf("List() error = %v, want ErrUnknownFilter", err)
	}
	if _, err := repo.List(ctx, domain.FilterAll, domain.Sort("priority")); !errors.Is(err, domain.ErrUnknownSort) {
		t.Errorf("List() error = %v, want ErrUnknownSort", err)
	}
}

func TestSqliteDSN(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"todo.db", "todo.db?" + sqliteParams},
		{":memory:", ":memory:?" + sqliteParams},
		{"file:todo.db?cache=shared", "file:todo.db?cache=shared&" + sqliteParams},
	}

	for _, tt := range tests {
		if got := sqliteDSN(tt.path); got != tt.want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
