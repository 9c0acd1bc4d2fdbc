package storage

import (
	"testing"
	"time"

	"bankist/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// DBTestSuite provides a test suite for directory and ledger operations.
type DBTestSuite struct {
	suite.Suite
	db *DB
}

// SetupTest runs before each test
func (suite *DBTestSuite) SetupTest() {
	db, err := NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db
}

// TearDownTest runs after each test
func (suite *DBTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *DBTestSuite) createAccount(owner string) *models.Account {
	account, err := suite.db.CreateAccount(owner, "hash", 1.2, "EUR", "en-US")
	require.NoError(suite.T(), err, "failed to create account for %s", owner)
	return account
}

func (suite *DBTestSuite) TestCreateAccountDerivesUsername() {
	account := suite.createAccount("Steven Thomas Williams")
	assert.Equal(suite.T(), "stw", account.Username)
	assert.Equal(suite.T(), "Steven Thomas Williams", account.Owner)

	found, err := suite.db.AccountByUsername("stw")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), account.ID, found.ID)
}

func (suite *DBTestSuite) TestCreateAccountUsernameUnique() {
	suite.createAccount("Jamie Davis")

	// "Jamie Donnelly" also derives to "jd"
	_, err := suite.db.CreateAccount("Jamie Donnelly", "hash", 0, "EUR", "en-US")
	assert.ErrorIs(suite.T(), err, ErrUsernameTaken)

	count, err := suite.db.AccountCount()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, count)
}

func (suite *DBTestSuite) TestAccountLookupMiss() {
	_, err := suite.db.AccountByUsername("nobody")
	assert.ErrorIs(suite.T(), err, ErrAccountNotFound)

	_, err = suite.db.AccountByID(99)
	assert.ErrorIs(suite.T(), err, ErrAccountNotFound)
}

func (suite *DBTestSuite) TestDeleteAccount() {
	account := suite.createAccount("Jamie Davis")
	require.NoError(suite.T(), suite.db.AppendMovement(account.ID, 100, models.CategoryOther, time.Now()))

	err := suite.db.DeleteAccount(account.ID)
	require.NoError(suite.T(), err)

	_, err = suite.db.AccountByUsername("jd")
	assert.ErrorIs(suite.T(), err, ErrAccountNotFound)

	movs, err := suite.db.Movements(account.ID)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), movs)
}

func (suite *DBTestSuite) TestDeleteAccountMissing() {
	err := suite.db.DeleteAccount(42)
	assert.ErrorIs(suite.T(), err, ErrAccountNotFound)
}

func (suite *DBTestSuite) TestBalanceIsSumOfMovements() {
	account := suite.createAccount("Jamie Davis")

	balance, err := suite.db.BalanceOf(account.ID)
	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), balance)

	for _, amount := range []float64{200, -50.5, 300} {
		require.NoError(suite.T(), suite.db.AppendMovement(account.ID, amount, models.CategoryOther, time.Now()))
	}

	balance, err = suite.db.BalanceOf(account.ID)
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 449.5, balance, 0.001)
}

func (suite *DBTestSuite) TestMovementsChronological() {
	account := suite.createAccount("Jamie Davis")
	now := time.Now()

	require.NoError(suite.T(), suite.db.AppendMovement(account.ID, 300, models.CategorySalary, now))
	require.NoError(suite.T(), suite.db.AppendMovement(account.ID, -100, models.CategoryMeal, now.Add(-time.Hour)))
	require.NoError(suite.T(), suite.db.AppendMovement(account.ID, 50, models.CategoryOther, now.Add(time.Hour)))

	movs, err := suite.db.Movements(account.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), movs, 3)
	assert.Equal(suite.T(), -100.0, movs[0].Amount)
	assert.Equal(suite.T(), 300.0, movs[1].Amount)
	assert.Equal(suite.T(), 50.0, movs[2].Amount)

	// Every row carries its own memo and date.
	for _, m := range movs {
		assert.NotEmpty(suite.T(), m.Memo)
		assert.False(suite.T(), m.Date.IsZero())
	}
}

func (suite *DBTestSuite) TestTransferMovementsBothSidesDated() {
	sender := suite.createAccount("Jamie Davis")
	recipient := suite.createAccount("Steven Thomas Williams")

	require.NoError(suite.T(), suite.db.AppendMovement(sender.ID, 500, models.CategorySalary, time.Now()))

	err := suite.db.TransferMovements(sender.ID, recipient.ID, 200, models.CategoryOther, time.Now())
	require.NoError(suite.T(), err)

	senderBalance, err := suite.db.BalanceOf(sender.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 300.0, senderBalance)

	recipientBalance, err := suite.db.BalanceOf(recipient.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 200.0, recipientBalance)

	recipientMovs, err := suite.db.Movements(recipient.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), recipientMovs, 1)
	assert.False(suite.T(), recipientMovs[0].Date.IsZero(), "credit side must be dated too")
}

func (suite *DBTestSuite) TestSummaryOf() {
	account := suite.createAccount("Jamie Davis")
	now := time.Now()

	require.NoError(suite.T(), suite.db.AppendMovement(account.ID, 200, models.CategorySalary, now))
	require.NoError(suite.T(), suite.db.AppendMovement(account.ID, 50, models.CategoryOther, now))
	require.NoError(suite.T(), suite.db.AppendMovement(account.ID, -120, models.CategoryMeal, now))
	require.NoError(suite.T(), suite.db.AppendMovement(account.ID, -30, models.CategoryTraffic, now))

	// Rate 2%: 200 earns 4, 50 earns 1, both kept (>= 1 unit).
	summary, err := suite.db.SummaryOf(account.ID, time.Time{}, 2)
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 250, summary.Income, 0.001)
	assert.InDelta(suite.T(), 150, summary.Outgoing, 0.001)
	assert.InDelta(suite.T(), 5, summary.Interest, 0.001)

	// Rate 1%: the 50 deposit would earn 0.5, dropped below the 1-unit floor.
	summary, err = suite.db.SummaryOf(account.ID, time.Time{}, 1)
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 2, summary.Interest, 0.001)
}

func (suite *DBTestSuite) TestSummaryOfSince() {
	account := suite.createAccount("Jamie Davis")
	now := time.Now()

	require.NoError(suite.T(), suite.db.AppendMovement(account.ID, 1000, models.CategorySalary, now.AddDate(0, -2, 0)))
	require.NoError(suite.T(), suite.db.AppendMovement(account.ID, 300, models.CategorySalary, now))
	require.NoError(suite.T(), suite.db.AppendMovement(account.ID, -80, models.CategoryMeal, now))

	since := now.AddDate(0, 0, -7)
	summary, err := suite.db.SummaryOf(account.ID, since, 0)
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 300, summary.Income, 0.001)
	assert.InDelta(suite.T(), 80, summary.Outgoing, 0.001)
}

func (suite *DBTestSuite) TestCategoryTotalsMonthBoundary() {
	account := suite.createAccount("Jamie Davis")

	inMonth := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2026, time.February, 27, 12, 0, 0, 0, time.UTC)

	require.NoError(suite.T(), suite.db.AppendMovement(account.ID, -40, models.CategoryMeal, inMonth))
	require.NoError(suite.T(), suite.db.AppendMovement(account.ID, -60, models.CategoryMeal, inMonth.AddDate(0, 0, 1)))
	require.NoError(suite.T(), suite.db.AppendMovement(account.ID, 900, models.CategorySalary, inMonth))
	require.NoError(suite.T(), suite.db.AppendMovement(account.ID, -500, models.CategoryMeal, lastMonth))

	totals, err := suite.db.CategoryTotals(account.ID, 2026, time.March)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), totals, 2)

	// Ordered by total ascending: meals (-100) before salary (900).
	assert.Equal(suite.T(), models.CategoryMeal, totals[0].Category)
	assert.InDelta(suite.T(), -100, totals[0].Total, 0.001)
	assert.Equal(suite.T(), 2, totals[0].Count)
	assert.Equal(suite.T(), models.CategorySalary, totals[1].Category)
}

func (suite *DBTestSuite) TestAuditTrail() {
	err := suite.db.AppendAudit(models.EntityTypeAccount, "jd", models.AuditActionDebit, []byte(`{"balance":500}`), []byte(`{"balance":300}`))
	require.NoError(suite.T(), err)
	err = suite.db.AppendAudit(models.EntityTypeAccount, "stw", models.AuditActionCredit, nil, []byte(`{"balance":200}`))
	require.NoError(suite.T(), err)

	entries, err := suite.db.AuditTrail(10)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), entries, 2)

	actions := make(map[string]bool)
	for _, e := range entries {
		assert.NotEmpty(suite.T(), e.ID)
		assert.Equal(suite.T(), models.EntityTypeAccount, e.EntityType)
		actions[e.Action] = true
	}
	assert.True(suite.T(), actions[models.AuditActionDebit])
	assert.True(suite.T(), actions[models.AuditActionCredit])
}

func (suite *DBTestSuite) TestSeed() {
	require.NoError(suite.T(), suite.db.Seed())

	count, err := suite.db.AccountCount()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, count)

	js, err := suite.db.AccountByUsername("js")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "JPY", js.Currency)

	movs, err := suite.db.Movements(js.ID)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), movs, 8)

	balance, err := suite.db.BalanceOf(js.ID)
	require.NoError(suite.T(), err)
	assert.Greater(suite.T(), balance, 0.0)
}

// Test suite runner
func TestDBSuite(t *testing.T) {
	suite.Run(t, new(DBTestSuite))
}
