package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"expense-api/internal/blob"
	"expense-api/internal/models"
)

func respondJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// CreateExpense handles the creation of a new expense from a multipart
// form: an "expense" JSON part plus an optional "receipt" file. When a
// receipt is present it is uploaded first and its URL stored on the row.
func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return nil
	}

	var e models.Expense
	if err := json.Unmarshal([]byte(r.FormValue("expense")), &e); err != nil {
		http.Error(w, "invalid expense JSON", http.StatusBadRequest)
		return nil
	}

	if e.UserID == 0 || e.Amount == 0 || e.ExpenseDate == "" {
		http.Error(w, "userId, amount and expenseDate are required", http.StatusBadRequest)
		return nil
	}

	file, header, err := r.FormFile("receipt")
	switch {
	case err == nil:
		defer file.Close()

		key := blob.ReceiptKey(e.UserID, e.ExpenseDate, header.Filename)
		url, err := h.receipts.Upload(key, file, blob.ContentTypeForFilename(header.Filename))
		if err != nil {
			if blob.IsDuplicate(err) {
				http.Error(w, "a receipt with this name already exists", http.StatusBadRequest)
				return nil
			}
			return fmt.Errorf("upload receipt: %w", err)
		}
		e.ReceiptURL = &url
	case errors.Is(err, http.ErrMissingFile):
		// No receipt attached; receiptURL stays null.
	default:
		return fmt.Errorf("read receipt file: %w", err)
	}

	id, err := h.db.CreateExpense(&e)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	e.ID = id

	return respondJSON(w, http.StatusCreated, e)
}

// GetExpenses returns all expenses for a user, newest first, each joined
// with its category name.
func (h *Handlers) GetExpenses(w http.ResponseWriter, r *http.Request) error {
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil || userID == 0 {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return nil
	}

	expenses, err := h.db.ListExpensesByUser(userID)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}

	return respondJSON(w, http.StatusOK, expenses)
}

// UpdateExpense replaces the mutable fields of an expense. The row must
// match both the expense id and the owning user id.
func (h *Handlers) UpdateExpense(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		ExpenseID   int64   `json:"expenseId"`
		UserID      int64   `json:"userId"`
		CategoryID  *int64  `json:"categoryId"`
		CompanyName string  `json:"companyName"`
		Amount      float64 `json:"amount"`
		Description string  `json:"description"`
		Notes       string  `json:"notes"`
		ReceiptURL  *string `json:"receiptURL"`
		ExpenseDate string  `json:"expenseDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return nil
	}

	if req.ExpenseID == 0 || req.UserID == 0 {
		http.Error(w, "expenseId and userId are required", http.StatusBadRequest)
		return nil
	}

	rows, err := h.db.UpdateExpense(&models.Expense{
		ID:          req.ExpenseID,
		UserID:      req.UserID,
		CategoryID:  req.CategoryID,
		CompanyName: req.CompanyName,
		Amount:      req.Amount,
		Description: req.Description,
		Notes:       req.Notes,
		ReceiptURL:  req.ReceiptURL,
		ExpenseDate: req.ExpenseDate,
	})
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if rows == 0 {
		http.Error(w, "expense not found or user not authorized", http.StatusNotFound)
		return nil
	}

	fmt.Fprint(w, "Expense updated successfully")
	return nil
}

// DeleteExpense removes an expense owned by the requesting user.
func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) error {
	expenseID, err1 := strconv.ParseInt(r.URL.Query().Get("expenseId"), 10, 64)
	userID, err2 := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err1 != nil || err2 != nil || expenseID == 0 || userID == 0 {
		http.Error(w, "expenseId and userId are required", http.StatusBadRequest)
		return nil
	}

	rows, err := h.db.DeleteExpense(expenseID, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if rows == 0 {
		http.Error(w, "expense not found or user not authorized", http.StatusNotFound)
		return nil
	}

	fmt.Fprint(w, "Expense deleted successfully")
	return nil
}

// GetCategories returns the read-only category reference data.
func (h *Handlers) GetCategories(w http.ResponseWriter, r *http.Request) error {
	categories, err := h.db.ListCategories()
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}

	return respondJSON(w, http.StatusOK, categories)
}
