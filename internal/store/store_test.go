package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesaflow/sacco-api/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := New(filepath.Join(t.TempDir(), "sacco.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func testUser(memberNumber string) *models.User {
	now := time.Now()
	return &models.User{
		MemberNumber: memberNumber,
		FirstName:    "Asha",
		LastName:     "Mwangi",
		Email:        memberNumber + "@example.com",
		PhoneNumber:  "254700000001",
		DateJoined:   now,
		Role:         models.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func testTransaction(id, memberNumber string, amount string, status models.TransactionStatus, date time.Time) *models.Transaction {
	d, _ := decimal.NewFromString(amount)
	return &models.Transaction{
		TransactionID: id,
		MemberNumber:  memberNumber,
		Type:          models.TypeDeposit,
		Amount:        d,
		Status:        status,
		Category:      models.CategorySavings,
		Date:          date,
		CreatedAt:     date,
		UpdatedAt:     date,
	}
}

func TestUserCRUD(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetUser("M1001")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.PutUser(testUser("M1001")))

	got, err := st.GetUser("M1001")
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.FirstName)

	got.FirstName = "Amina"
	require.NoError(t, st.PutUser(got))

	got, err = st.GetUser("M1001")
	require.NoError(t, err)
	assert.Equal(t, "Amina", got.FirstName)

	require.NoError(t, st.DeleteUser("M1001"))
	_, err = st.GetUser("M1001")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting twice reports the missing record.
	assert.ErrorIs(t, st.DeleteUser("M1001"), ErrNotFound)
}

func TestListUsers_Filter(t *testing.T) {
	st := newTestStore(t)

	active := testUser("M1001")
	inactive := testUser("M2002")
	inactive.FirstName = "Brian"
	inactive.IsActive = false
	require.NoError(t, st.PutUser(active))
	require.NoError(t, st.PutUser(inactive))

	all, err := st.ListUsers(UserFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	isActive := true
	actives, err := st.ListUsers(UserFilter{Active: &isActive})
	require.NoError(t, err)
	require.Len(t, actives, 1)
	assert.Equal(t, "M1001", actives[0].MemberNumber)

	// Search matches across member number and names, case-insensitive.
	byName, err := st.ListUsers(UserFilter{Search: "brian"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "M2002", byName[0].MemberNumber)

	byNumber, err := st.ListUsers(UserFilter{Search: "m1001"})
	require.NoError(t, err)
	assert.Len(t, byNumber, 1)
}

func TestFindUserByEmail(t *testing.T) {
	st := newTestStore(t)

	user := testUser("M1001")
	user.Email = "Asha.Mwangi@example.com"
	require.NoError(t, st.PutUser(user))

	found, err := st.FindUserByEmail("asha.mwangi@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, "M1001", found.MemberNumber)

	_, err = st.FindUserByEmail("nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccountCRUD(t *testing.T) {
	st := newTestStore(t)

	now := time.Now()
	require.NoError(t, st.PutAccount(&models.Account{
		MemberNumber:    "M1001",
		Savings:         decimal.RequireFromString("150.25"),
		AccountStatus:   models.AccountActive,
		AccountOpenDate: now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}))

	got, err := st.GetAccount("M1001")
	require.NoError(t, err)
	assert.True(t, got.Savings.Equal(decimal.RequireFromString("150.25")))

	require.NoError(t, st.DeleteAccount("M1001"))
	_, err = st.GetAccount("M1001")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAccounts_Filter(t *testing.T) {
	st := newTestStore(t)

	now := time.Now()
	for member, status := range map[string]models.AccountStatus{
		"M1001": models.AccountActive,
		"M2002": models.AccountSuspended,
	} {
		require.NoError(t, st.PutAccount(&models.Account{
			MemberNumber:    member,
			AccountStatus:   status,
			AccountOpenDate: now,
			CreatedAt:       now,
			UpdatedAt:       now,
		}))
	}

	suspended, err := st.ListAccounts(AccountFilter{Status: models.AccountSuspended})
	require.NoError(t, err)
	require.Len(t, suspended, 1)
	assert.Equal(t, "M2002", suspended[0].MemberNumber)

	bySearch, err := st.ListAccounts(AccountFilter{Search: "m10"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, "M1001", bySearch[0].MemberNumber)
}

func TestListTransactions_FilterAndOrder(t *testing.T) {
	st := newTestStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	txns := []*models.Transaction{
		testTransaction("TXN-A", "M1001", "10.00", models.StatusCompleted, base),
		testTransaction("TXN-B", "M1001", "50.00", models.StatusPending, base.AddDate(0, 0, 2)),
		testTransaction("TXN-C", "M2002", "200.00", models.StatusCompleted, base.AddDate(0, 0, 4)),
	}
	for _, txn := range txns {
		require.NoError(t, st.Update(func(tx *Txn) error {
			return tx.PutTransaction(txn)
		}))
	}

	// Newest first.
	all, err := st.ListTransactions(TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "TXN-C", all[0].TransactionID)
	assert.Equal(t, "TXN-A", all[2].TransactionID)

	byMember, err := st.ListTransactions(TransactionFilter{MemberNumber: "M1001"})
	require.NoError(t, err)
	assert.Len(t, byMember, 2)

	byStatus, err := st.ListTransactions(TransactionFilter{Status: models.StatusPending})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "TXN-B", byStatus[0].TransactionID)

	start := base.AddDate(0, 0, 1)
	end := base.AddDate(0, 0, 3)
	byDate, err := st.ListTransactions(TransactionFilter{StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, "TXN-B", byDate[0].TransactionID)

	minAmount := decimal.RequireFromString("40.00")
	maxAmount := decimal.RequireFromString("100.00")
	byAmount, err := st.ListTransactions(TransactionFilter{MinAmount: &minAmount, MaxAmount: &maxAmount})
	require.NoError(t, err)
	require.Len(t, byAmount, 1)
	assert.Equal(t, "TXN-B", byAmount[0].TransactionID)
}

func TestUpdate_RollbackOnError(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.PutUser(testUser("M1001")))

	boom := errors.New("boom")
	err := st.Update(func(tx *Txn) error {
		user, err := tx.GetUser("M1001")
		if err != nil {
			return err
		}
		user.FirstName = "ShouldNotPersist"
		if err := tx.PutUser(user); err != nil {
			return err
		}
		if err := tx.PutUser(testUser("M9999")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Neither write survived the failed transaction.
	got, err := st.GetUser("M1001")
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.FirstName)

	_, err = st.GetUser("M9999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTxn_ExistsHelpers(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.PutUser(testUser("M1001")))

	require.NoError(t, st.View(func(tx *Txn) error {
		ok, err := tx.UserExists("M1001")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = tx.UserExists("GHOST")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = tx.AccountExists("M1001")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = tx.TransactionExists("TXN-X")
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	}))
}
