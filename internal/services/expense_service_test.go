package services

import (
	"testing"
	"time"

	"spendwise/internal/models"
	"spendwise/internal/pagination"
	"spendwise/internal/testutil"

	"gorm.io/gorm"
)

func newTestExpenseService(db *gorm.DB) *expenseService {
	return &expenseService{db: db, now: clock}
}

func TestCreateExpense(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestExpenseService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategoryNamed(t, db, user.ID, "Food")

		expense, err := svc.CreateExpense(user.ID, ExpenseInput{
			CategoryID: &cat.ID,
			Amount:     testutil.Money(t, "42.50"),
			Date:       fixedNow,
			Notes:      " lunch ",
		})
		testutil.AssertNoError(t, err)

		if expense.ExpenseType != models.ExpenseTypeVariable {
			t.Errorf("expected default type variable, got %s", expense.ExpenseType)
		}
		if expense.Notes != "lunch" {
			t.Errorf("expected trimmed notes, got %q", expense.Notes)
		}
		if expense.CategoryName() != "Food" {
			t.Errorf("expected category Food, got %q", expense.CategoryName())
		}
		if expense.Date.Hour() != 0 {
			t.Errorf("expected date truncated to the day, got %v", expense.Date)
		}
	})

	t.Run("uncategorized", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestExpenseService(db)
		user := testutil.CreateTestUser(t, db)

		expense, err := svc.CreateExpense(user.ID, ExpenseInput{Amount: testutil.Money(t, "5"), Date: fixedNow})
		testutil.AssertNoError(t, err)
		if expense.CategoryID != nil {
			t.Error("expected no category")
		}
	})

	t.Run("future_date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestExpenseService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateExpense(user.ID, ExpenseInput{Amount: testutil.Money(t, "5"), Date: fixedNow.AddDate(0, 0, 1)})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("foreign_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestExpenseService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, other.ID)

		_, err := svc.CreateExpense(user.ID, ExpenseInput{CategoryID: &cat.ID, Amount: testutil.Money(t, "5"), Date: fixedNow})
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("bad_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestExpenseService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateExpense(user.ID, ExpenseInput{Amount: testutil.Money(t, "5"), Date: fixedNow, ExpenseType: "weekly"})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetUserExpenses(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestExpenseService(db)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	food := testutil.CreateTestCategoryNamed(t, db, user.ID, "Groceries")
	rent := testutil.CreateTestCategoryNamed(t, db, user.ID, "Rent")

	e1 := testutil.CreateTestExpense(t, db, user.ID, food.ID, testutil.Date(2026, time.March, 1), "20.00")
	e2 := testutil.CreateTestExpense(t, db, user.ID, rent.ID, testutil.Date(2026, time.March, 5), "900.00")
	e3 := testutil.CreateTestExpense(t, db, user.ID, "", testutil.Date(2026, time.February, 20), "45.99")
	db.Model(e3).Update("notes", "Coffee 100% arabica")
	testutil.CreateTestExpense(t, db, other.ID, "", testutil.Date(2026, time.March, 2), "1.00")

	ids := func(res *pagination.PageResponse[models.Expense]) []string {
		out := make([]string, len(res.Data))
		for i, e := range res.Data {
			out[i] = e.ID
		}
		return out
	}

	t.Run("default_sort_newest_first", func(t *testing.T) {
		res, err := svc.GetUserExpenses(user.ID, pagination.PageRequest{}, ExpenseFilter{})
		testutil.AssertNoError(t, err)
		got := ids(res)
		if len(got) != 3 || got[0] != e2.ID || got[2] != e3.ID {
			t.Errorf("unexpected order %v", got)
		}
		if res.Data[0].Category == nil || res.Data[0].Category.Name != "Rent" {
			t.Error("expected category to be preloaded")
		}
	})

	t.Run("sort_by_amount", func(t *testing.T) {
		res, err := svc.GetUserExpenses(user.ID, pagination.PageRequest{}, ExpenseFilter{SortBy: "amount"})
		testutil.AssertNoError(t, err)
		got := ids(res)
		if got[0] != e1.ID || got[2] != e2.ID {
			t.Errorf("unexpected order %v", got)
		}
	})

	t.Run("search_category_name", func(t *testing.T) {
		res, err := svc.GetUserExpenses(user.ID, pagination.PageRequest{}, ExpenseFilter{Search: "grocer"})
		testutil.AssertNoError(t, err)
		if res.TotalItems != 1 || res.Data[0].ID != e1.ID {
			t.Errorf("expected only the groceries expense, got %v", ids(res))
		}
	})

	t.Run("search_notes_with_wildcard_chars", func(t *testing.T) {
		res, err := svc.GetUserExpenses(user.ID, pagination.PageRequest{}, ExpenseFilter{Search: "100%"})
		testutil.AssertNoError(t, err)
		if res.TotalItems != 1 || res.Data[0].ID != e3.ID {
			t.Errorf("expected only the coffee expense, got %v", ids(res))
		}
	})

	t.Run("search_amount", func(t *testing.T) {
		res, err := svc.GetUserExpenses(user.ID, pagination.PageRequest{}, ExpenseFilter{Search: "900.00"})
		testutil.AssertNoError(t, err)
		if res.TotalItems != 1 || res.Data[0].ID != e2.ID {
			t.Errorf("expected only the rent expense, got %v", ids(res))
		}
	})

	t.Run("amount_and_date_range", func(t *testing.T) {
		min := testutil.Money(t, "10")
		max := testutil.Money(t, "100")
		from := testutil.Date(2026, time.March, 1)
		to := testutil.Date(2026, time.March, 31)
		res, err := svc.GetUserExpenses(user.ID, pagination.PageRequest{}, ExpenseFilter{MinAmount: &min, MaxAmount: &max, From: &from, To: &to})
		testutil.AssertNoError(t, err)
		if res.TotalItems != 1 || res.Data[0].ID != e1.ID {
			t.Errorf("expected only the March groceries expense, got %v", ids(res))
		}
	})

	t.Run("invalid_filters", func(t *testing.T) {
		min := testutil.Money(t, "100")
		max := testutil.Money(t, "10")
		_, err := svc.GetUserExpenses(user.ID, pagination.PageRequest{}, ExpenseFilter{MinAmount: &min, MaxAmount: &max})
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		from := testutil.Date(2026, time.March, 1)
		_, err = svc.GetUserExpenses(user.ID, pagination.PageRequest{}, ExpenseFilter{From: &from})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestUpdateExpense(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestExpenseService(db)
	user := testutil.CreateTestUser(t, db)
	cat := testutil.CreateTestCategory(t, db, user.ID)
	expense := testutil.CreateTestExpense(t, db, user.ID, cat.ID, fixedNow, "10")

	amount := testutil.Money(t, "12.34")
	clear := ""
	updated, err := svc.UpdateExpense(user.ID, expense.ID, ExpenseUpdate{Amount: &amount, CategoryID: &clear})
	testutil.AssertNoError(t, err)
	if updated.CategoryID != nil {
		t.Error("expected category to be cleared")
	}

	reloaded, err := svc.GetExpenseByID(user.ID, expense.ID)
	testutil.AssertNoError(t, err)
	if reloaded.Amount.StringFixed(2) != "12.34" || reloaded.CategoryID != nil {
		t.Errorf("update not persisted: amount %s category %v", reloaded.Amount.StringFixed(2), reloaded.CategoryID)
	}

	future := fixedNow.AddDate(0, 1, 0)
	_, err = svc.UpdateExpense(user.ID, expense.ID, ExpenseUpdate{Date: &future})
	testutil.AssertAppError(t, err, "INVALID_INPUT")
}

func TestDeleteExpense(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestExpenseService(db)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	expense := testutil.CreateTestExpense(t, db, user.ID, "", fixedNow, "10")

	testutil.AssertAppError(t, svc.DeleteExpense(other.ID, expense.ID), "EXPENSE_NOT_FOUND")
	testutil.AssertNoError(t, svc.DeleteExpense(user.ID, expense.ID))
	_, err := svc.GetExpenseByID(user.ID, expense.ID)
	testutil.AssertAppError(t, err, "EXPENSE_NOT_FOUND")
}

func TestGetExpensesInRange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestExpenseService(db)
	user := testutil.CreateTestUser(t, db)
	testutil.CreateTestExpense(t, db, user.ID, "", testutil.Date(2026, time.March, 10), "3")
	testutil.CreateTestExpense(t, db, user.ID, "", testutil.Date(2026, time.March, 1), "1")
	testutil.CreateTestExpense(t, db, user.ID, "", testutil.Date(2026, time.February, 28), "2")

	expenses, err := svc.GetExpensesInRange(user.ID, testutil.Date(2026, time.March, 1), testutil.Date(2026, time.March, 10))
	testutil.AssertNoError(t, err)
	if len(expenses) != 2 {
		t.Fatalf("expected 2 expenses with inclusive bounds, got %d", len(expenses))
	}
	if expenses[0].Amount.StringFixed(2) != "1.00" {
		t.Errorf("expected oldest first, got %s", expenses[0].Amount.StringFixed(2))
	}

	_, err = svc.GetExpensesInRange(user.ID, testutil.Date(2026, time.March, 10), testutil.Date(2026, time.March, 1))
	testutil.AssertAppError(t, err, "INVALID_INPUT")
}
