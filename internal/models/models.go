package models

import "time"

// Expense represents a financial expense record. ExpenseDate is carried
// as a YYYY-MM-DD string, exactly as clients submit it.
type Expense struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"userId"`
	CategoryID  *int64  `json:"categoryId"`
	CompanyName string  `json:"companyName"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Notes       string  `json:"notes"`
	ReceiptURL  *string `json:"receiptURL"`
	ExpenseDate string  `json:"expenseDate"`
}

// ExpenseWithCategory is an expense joined with its category name.
// Expenses without a category carry the "Uncategorized" placeholder.
type ExpenseWithCategory struct {
	Expense
	CategoryName string `json:"categoryName"`
}

// Category is read-only reference data.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// User represents a user account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	CreatedAt    time.Time `json:"createdAt"`
}
