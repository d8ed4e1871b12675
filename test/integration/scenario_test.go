package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pesaflow/sacco-api/internal/models"
)

func TestAuthFlow(t *testing.T) {
	client := setupTestServer(t)
	client.registerAdmin(t, "A0001")

	t.Run("Register duplicate member number", func(t *testing.T) {
		resp := client.request(t, "POST", "/api/auth/register", models.RegisterRequest{
			MemberNumber: "a0001",
			FirstName:    "Dup",
			LastName:     "User",
			PhoneNumber:  "254700000009",
			Password:     "some-password",
		})
		expectStatus(t, resp, http.StatusConflict)
		resp.Body.Close()
	})

	t.Run("Login", func(t *testing.T) {
		resp := client.requestAs(t, "", "POST", "/api/auth/login", models.LoginRequest{
			MemberNumber: "A0001",
			Password:     "admin-password",
		})
		expectStatus(t, resp, http.StatusOK)

		var result struct {
			Token string       `json:"token"`
			User  *models.User `json:"user"`
		}
		decodeBody(t, resp, &result)

		if result.Token == "" {
			t.Fatal("Expected non-empty token")
		}
		if result.User.MemberNumber != "A0001" {
			t.Errorf("Expected member number A0001, got %s", result.User.MemberNumber)
		}
	})

	t.Run("Login wrong password", func(t *testing.T) {
		resp := client.requestAs(t, "", "POST", "/api/auth/login", models.LoginRequest{
			MemberNumber: "A0001",
			Password:     "wrong-password",
		})
		expectStatus(t, resp, http.StatusUnauthorized)
		resp.Body.Close()
	})

	t.Run("Me", func(t *testing.T) {
		resp := client.request(t, "GET", "/api/auth/me", nil)
		expectStatus(t, resp, http.StatusOK)

		var result struct {
			User *models.User `json:"user"`
		}
		decodeBody(t, resp, &result)

		if result.User.MemberNumber != "A0001" {
			t.Errorf("Expected member number A0001, got %s", result.User.MemberNumber)
		}
	})

	t.Run("Unauthenticated request rejected", func(t *testing.T) {
		resp := client.requestAs(t, "", "GET", "/api/users", nil)
		expectStatus(t, resp, http.StatusUnauthorized)
		resp.Body.Close()
	})

	t.Run("Change password invalidates old token", func(t *testing.T) {
		memberToken := client.registerMember(t, "M0100", "254700000100")

		// Token issue time has second precision, so move past the
		// issuing second before changing the password.
		time.Sleep(1100 * time.Millisecond)

		resp := client.requestAs(t, memberToken, "PATCH", "/api/auth/change-password", models.ChangePasswordRequest{
			CurrentPassword: "member-password",
			NewPassword:     "brand-new-password",
		})
		expectStatus(t, resp, http.StatusOK)
		resp.Body.Close()

		resp = client.requestAs(t, memberToken, "GET", "/api/auth/me", nil)
		expectStatus(t, resp, http.StatusUnauthorized)
		resp.Body.Close()

		// Logging in with the new password works.
		resp = client.requestAs(t, "", "POST", "/api/auth/login", models.LoginRequest{
			MemberNumber: "M0100",
			Password:     "brand-new-password",
		})
		expectStatus(t, resp, http.StatusOK)
		resp.Body.Close()
	})
}

func TestUserLifecycle(t *testing.T) {
	client := setupTestServer(t)
	client.registerAdmin(t, "A0001")

	t.Run("Create user", func(t *testing.T) {
		resp := client.request(t, "POST", "/api/users", models.CreateUserRequest{
			MemberNumber: "M0200",
			FirstName:    "Grace",
			LastName:     "Njeri",
			PhoneNumber:  "254700000200",
		})
		expectStatus(t, resp, http.StatusCreated)
		resp.Body.Close()
	})

	t.Run("Update user", func(t *testing.T) {
		email := "grace.njeri@example.com"
		resp := client.request(t, "PUT", "/api/users/M0200", models.UpdateUserRequest{
			Email: &email,
		})
		expectStatus(t, resp, http.StatusOK)

		var user models.User
		decodeBody(t, resp, &user)
		if user.Email != email {
			t.Errorf("Expected email %s, got %s", email, user.Email)
		}
	})

	t.Run("Soft delete then restore", func(t *testing.T) {
		resp := client.request(t, "DELETE", "/api/users/M0200", nil)
		expectStatus(t, resp, http.StatusOK)
		resp.Body.Close()

		resp = client.request(t, "GET", "/api/users/M0200", nil)
		expectStatus(t, resp, http.StatusOK)
		var user models.User
		decodeBody(t, resp, &user)
		if user.IsActive {
			t.Error("Expected user to be deactivated")
		}

		resp = client.request(t, "PATCH", "/api/users/M0200/restore", nil)
		expectStatus(t, resp, http.StatusOK)
		resp.Body.Close()

		resp = client.request(t, "GET", "/api/users/M0200", nil)
		expectStatus(t, resp, http.StatusOK)
		decodeBody(t, resp, &user)
		if !user.IsActive {
			t.Error("Expected user to be active after restore")
		}
	})

	t.Run("List users", func(t *testing.T) {
		resp := client.request(t, "GET", "/api/users?search=grace", nil)
		expectStatus(t, resp, http.StatusOK)

		var result struct {
			Users      []*models.User `json:"users"`
			TotalUsers int            `json:"totalUsers"`
		}
		decodeBody(t, resp, &result)
		if result.TotalUsers != 1 {
			t.Errorf("Expected 1 user, got %d", result.TotalUsers)
		}
	})

	t.Run("Member cannot read another member", func(t *testing.T) {
		memberToken := client.registerMember(t, "M0300", "254700000300")

		resp := client.requestAs(t, memberToken, "GET", "/api/users/M0200", nil)
		expectStatus(t, resp, http.StatusForbidden)
		resp.Body.Close()

		resp = client.requestAs(t, memberToken, "GET", "/api/users/M0300", nil)
		expectStatus(t, resp, http.StatusOK)
		resp.Body.Close()
	})
}

func TestAccountLifecycle(t *testing.T) {
	client := setupTestServer(t)
	client.registerAdmin(t, "A0001")
	client.registerMember(t, "M0400", "254700000400")

	t.Run("Create account for missing user", func(t *testing.T) {
		resp := client.request(t, "POST", "/api/accounts", models.CreateAccountRequest{
			MemberNumber: "GHOST",
		})
		expectStatus(t, resp, http.StatusNotFound)
		resp.Body.Close()
	})

	t.Run("Create account", func(t *testing.T) {
		client.createAccount(t, "M0400")
	})

	t.Run("Duplicate account rejected", func(t *testing.T) {
		resp := client.request(t, "POST", "/api/accounts", models.CreateAccountRequest{
			MemberNumber: "M0400",
		})
		expectStatus(t, resp, http.StatusConflict)
		resp.Body.Close()
	})

	t.Run("Adjust balance", func(t *testing.T) {
		resp := client.request(t, "PATCH", "/api/accounts/M0400/balance", models.AdjustBalanceRequest{
			Amount: decimal.RequireFromString("500.00"),
			Type:   "credit",
		})
		expectStatus(t, resp, http.StatusOK)

		var result struct {
			NewBalance decimal.Decimal `json:"newBalance"`
		}
		decodeBody(t, resp, &result)
		if !result.NewBalance.Equal(decimal.RequireFromString("500.00")) {
			t.Errorf("Expected balance 500.00, got %s", result.NewBalance)
		}
	})

	t.Run("Debit past zero rejected", func(t *testing.T) {
		resp := client.request(t, "PATCH", "/api/accounts/M0400/balance", models.AdjustBalanceRequest{
			Amount: decimal.RequireFromString("600.00"),
			Type:   "debit",
		})
		expectStatus(t, resp, http.StatusBadRequest)
		resp.Body.Close()
	})

	t.Run("Account summary", func(t *testing.T) {
		resp := client.request(t, "GET", "/api/accounts/M0400/summary", nil)
		expectStatus(t, resp, http.StatusOK)

		var result struct {
			Account    *models.Account `json:"account"`
			TotalValue decimal.Decimal `json:"totalValue"`
		}
		decodeBody(t, resp, &result)
		if !result.Account.Savings.Equal(decimal.RequireFromString("500.00")) {
			t.Errorf("Expected savings 500.00, got %s", result.Account.Savings)
		}
	})
}

func TestTransactionLifecycle(t *testing.T) {
	client := setupTestServer(t)
	client.registerAdmin(t, "A0001")
	client.registerMember(t, "M0500", "254700000500")
	client.createAccount(t, "M0500")

	var transactionID string

	t.Run("Completed deposit", func(t *testing.T) {
		resp := client.request(t, "POST", "/api/transactions", depositRequest("M0500", "100.00", true))
		expectStatus(t, resp, http.StatusCreated)

		var txn models.Transaction
		decodeBody(t, resp, &txn)
		if !txn.AccountBalance.Equal(decimal.RequireFromString("100.00")) {
			t.Errorf("Expected balance snapshot 100.00, got %s", txn.AccountBalance)
		}
	})

	t.Run("Overdraft rejected", func(t *testing.T) {
		resp := client.request(t, "POST", "/api/transactions", withdrawalRequest("M0500", "150.00", true))
		expectStatus(t, resp, http.StatusBadRequest)
		resp.Body.Close()

		// The rejected withdrawal left no trace.
		resp = client.request(t, "GET", "/api/transactions/member/M0500", nil)
		expectStatus(t, resp, http.StatusOK)
		var result struct {
			TotalTransactions int `json:"totalTransactions"`
		}
		decodeBody(t, resp, &result)
		if result.TotalTransactions != 1 {
			t.Errorf("Expected 1 transaction, got %d", result.TotalTransactions)
		}
	})

	t.Run("Pending withdrawal then complete", func(t *testing.T) {
		resp := client.request(t, "POST", "/api/transactions", withdrawalRequest("M0500", "25.00", false))
		expectStatus(t, resp, http.StatusCreated)

		var txn models.Transaction
		decodeBody(t, resp, &txn)
		transactionID = txn.TransactionID

		resp = client.request(t, "PATCH", fmt.Sprintf("/api/transactions/%s/complete", transactionID),
			models.CompleteTransactionRequest{ConfirmedBy: "A0001"})
		expectStatus(t, resp, http.StatusOK)

		var result struct {
			NewAccountBalance decimal.Decimal `json:"newAccountBalance"`
		}
		decodeBody(t, resp, &result)
		if !result.NewAccountBalance.Equal(decimal.RequireFromString("75.00")) {
			t.Errorf("Expected balance 75.00, got %s", result.NewAccountBalance)
		}
	})

	t.Run("Complete twice rejected", func(t *testing.T) {
		resp := client.request(t, "PATCH", fmt.Sprintf("/api/transactions/%s/complete", transactionID),
			models.CompleteTransactionRequest{ConfirmedBy: "A0001"})
		expectStatus(t, resp, http.StatusBadRequest)
		resp.Body.Close()
	})

	t.Run("Delete completed withdrawal restores balance", func(t *testing.T) {
		resp := client.request(t, "DELETE", "/api/transactions/"+transactionID, nil)
		expectStatus(t, resp, http.StatusOK)
		resp.Body.Close()

		resp = client.request(t, "GET", "/api/accounts/M0500", nil)
		expectStatus(t, resp, http.StatusOK)
		var account models.Account
		decodeBody(t, resp, &account)
		if !account.Savings.Equal(decimal.RequireFromString("100.00")) {
			t.Errorf("Expected savings 100.00, got %s", account.Savings)
		}
	})

	t.Run("List with summary", func(t *testing.T) {
		resp := client.request(t, "GET", "/api/transactions?memberNumber=M0500", nil)
		expectStatus(t, resp, http.StatusOK)

		var result struct {
			TotalTransactions int `json:"totalTransactions"`
			Summary           struct {
				TotalDeposits decimal.Decimal `json:"totalDeposits"`
			} `json:"summary"`
		}
		decodeBody(t, resp, &result)
		if result.TotalTransactions != 1 {
			t.Errorf("Expected 1 transaction, got %d", result.TotalTransactions)
		}
		if !result.Summary.TotalDeposits.Equal(decimal.RequireFromString("100.00")) {
			t.Errorf("Expected total deposits 100.00, got %s", result.Summary.TotalDeposits)
		}
	})

	t.Run("Member can only read own transactions", func(t *testing.T) {
		otherToken := client.registerMember(t, "M0600", "254700000600")

		resp := client.requestAs(t, otherToken, "GET", "/api/transactions/member/M0500", nil)
		expectStatus(t, resp, http.StatusForbidden)
		resp.Body.Close()

		resp = client.requestAs(t, otherToken, "POST", "/api/transactions", depositRequest("M0600", "10.00", false))
		expectStatus(t, resp, http.StatusForbidden)
		resp.Body.Close()
	})
}
