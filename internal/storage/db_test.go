package storage

import (
	"testing"

	"expense-api/internal/auth"
	"expense-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// DBTestSuite provides a test suite for database operations
type DBTestSuite struct {
	suite.Suite
	db   *DB
	user *models.User
}

// SetupTest runs before each test
func (suite *DBTestSuite) SetupTest() {
	db, err := NewDB("sqlite", ":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db

	hash, err := auth.HashPassword("testpass")
	require.NoError(suite.T(), err)

	user, err := db.CreateUser("test@example.com", hash, "Test", "User")
	require.NoError(suite.T(), err, "failed to create test user")
	suite.user = user
}

// TearDownTest runs after each test
func (suite *DBTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *DBTestSuite) createExpense(e models.Expense) int64 {
	if e.UserID == 0 {
		e.UserID = suite.user.ID
	}
	id, err := suite.db.CreateExpense(&e)
	require.NoError(suite.T(), err)
	return id
}

func (suite *DBTestSuite) TestCreateAndGetExpense() {
	catID := int64(1)
	url := "https://blob.example/receipts/1/2024-01-01/abc.pdf"
	id := suite.createExpense(models.Expense{
		CategoryID:  &catID,
		CompanyName: "Company Inc",
		Amount:      100.50,
		Description: "Dinner",
		Notes:       "client meeting",
		ReceiptURL:  &url,
		ExpenseDate: "2024-01-01",
	})

	e, err := suite.db.GetExpense(id)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.user.ID, e.UserID)
	assert.Equal(suite.T(), "Company Inc", e.CompanyName)
	assert.Equal(suite.T(), 100.50, e.Amount)
	require.NotNil(suite.T(), e.CategoryID)
	assert.Equal(suite.T(), catID, *e.CategoryID)
	require.NotNil(suite.T(), e.ReceiptURL)
	assert.Equal(suite.T(), url, *e.ReceiptURL)
	assert.Equal(suite.T(), "2024-01-01", e.ExpenseDate)
}

func (suite *DBTestSuite) TestCreateExpenseWithoutCategoryOrReceipt() {
	id := suite.createExpense(models.Expense{Amount: 42, ExpenseDate: "2024-02-02"})

	e, err := suite.db.GetExpense(id)
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), e.CategoryID)
	assert.Nil(suite.T(), e.ReceiptURL)
}

func (suite *DBTestSuite) TestListExpensesByUser() {
	suite.createExpense(models.Expense{Amount: 10, Description: "Oldest", ExpenseDate: "2024-01-01"})
	suite.createExpense(models.Expense{Amount: 20, Description: "Newest", ExpenseDate: "2024-03-01"})
	suite.createExpense(models.Expense{Amount: 15, Description: "Middle", ExpenseDate: "2024-02-01"})

	// Another user's expense must not leak into the list.
	hash, err := auth.HashPassword("pw")
	require.NoError(suite.T(), err)
	other, err := suite.db.CreateUser("other@example.com", hash, "Other", "User")
	require.NoError(suite.T(), err)
	suite.createExpense(models.Expense{UserID: other.ID, Amount: 99, ExpenseDate: "2024-01-15"})

	expenses, err := suite.db.ListExpensesByUser(suite.user.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), expenses, 3)

	// Newest expense date first.
	assert.Equal(suite.T(), "Newest", expenses[0].Description)
	assert.Equal(suite.T(), "Middle", expenses[1].Description)
	assert.Equal(suite.T(), "Oldest", expenses[2].Description)
}

func (suite *DBTestSuite) TestListExpensesCategoryPlaceholder() {
	catID := int64(3)
	suite.createExpense(models.Expense{CategoryID: &catID, Amount: 10, ExpenseDate: "2024-01-02"})
	suite.createExpense(models.Expense{Amount: 20, ExpenseDate: "2024-01-01"})

	expenses, err := suite.db.ListExpensesByUser(suite.user.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), expenses, 2)

	assert.Equal(suite.T(), "Transportation", expenses[0].CategoryName)
	assert.Equal(suite.T(), "Uncategorized", expenses[1].CategoryName)
}

func (suite *DBTestSuite) TestUpdateExpenseOwnership() {
	id := suite.createExpense(models.Expense{Amount: 10, Description: "Before", ExpenseDate: "2024-01-01"})

	// Wrong owner: no rows affected, no mutation.
	rows, err := suite.db.UpdateExpense(&models.Expense{
		ID: id, UserID: suite.user.ID + 1, Amount: 999, Description: "Hacked", ExpenseDate: "2024-01-01",
	})
	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), rows)

	e, err := suite.db.GetExpense(id)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Before", e.Description)
	assert.Equal(suite.T(), 10.0, e.Amount)

	// Right owner: full replace of mutable fields.
	rows, err = suite.db.UpdateExpense(&models.Expense{
		ID: id, UserID: suite.user.ID, Amount: 25, Description: "After",
		CompanyName: "NewCo", Notes: "updated", ExpenseDate: "2024-01-05",
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), rows)

	e, err = suite.db.GetExpense(id)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "After", e.Description)
	assert.Equal(suite.T(), 25.0, e.Amount)
	assert.Equal(suite.T(), "NewCo", e.CompanyName)
	assert.Equal(suite.T(), "2024-01-05", e.ExpenseDate)
}

func (suite *DBTestSuite) TestDeleteExpenseOwnership() {
	id := suite.createExpense(models.Expense{Amount: 10, ExpenseDate: "2024-01-01"})

	rows, err := suite.db.DeleteExpense(id, suite.user.ID+1)
	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), rows, "non-owner must not delete")

	_, err = suite.db.GetExpense(id)
	require.NoError(suite.T(), err, "row should survive a non-owner delete")

	rows, err = suite.db.DeleteExpense(id, suite.user.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), rows)

	_, err = suite.db.GetExpense(id)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *DBTestSuite) TestCategoriesSeeded() {
	categories, err := suite.db.ListCategories()
	require.NoError(suite.T(), err)
	require.Len(suite.T(), categories, 11)

	assert.Equal(suite.T(), "Utilities", categories[0].Name)
	assert.Equal(suite.T(), "Other", categories[10].Name)
}

// UserTestSuite provides a test suite for user operations
type UserTestSuite struct {
	suite.Suite
	db *DB
}

func (suite *UserTestSuite) SetupTest() {
	db, err := NewDB("sqlite", ":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db
}

func (suite *UserTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *UserTestSuite) TestCreateAndGetUser() {
	user, err := suite.db.CreateUser("a@x.com", "hash", "A", "B")
	require.NoError(suite.T(), err)
	assert.NotZero(suite.T(), user.ID)
	assert.Equal(suite.T(), "a@x.com", user.Email)
	assert.Equal(suite.T(), "A", user.FirstName)
	assert.Equal(suite.T(), "B", user.LastName)

	byEmail, err := suite.db.GetUserByEmail("a@x.com")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), user.ID, byEmail.ID)
	assert.Equal(suite.T(), "hash", byEmail.PasswordHash)
}

func (suite *UserTestSuite) TestDuplicateEmail() {
	_, err := suite.db.CreateUser("a@x.com", "hash", "A", "B")
	require.NoError(suite.T(), err)

	_, err = suite.db.CreateUser("a@x.com", "hash2", "C", "D")
	assert.ErrorIs(suite.T(), err, ErrDuplicate)

	count, err := suite.db.UserCount()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, count, "rejected signup must not create a second row")
}

func (suite *UserTestSuite) TestGetUserByEmailNotFound() {
	_, err := suite.db.GetUserByEmail("nobody@x.com")
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

// Test suite runners
func TestDBSuite(t *testing.T) {
	suite.Run(t, new(DBTestSuite))
}

func TestUserSuite(t *testing.T) {
	suite.Run(t, new(UserTestSuite))
}
