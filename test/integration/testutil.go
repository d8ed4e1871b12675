package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/pesaflow/sacco-api/internal/api"
	"github.com/pesaflow/sacco-api/internal/auth"
	"github.com/pesaflow/sacco-api/internal/ledger"
	"github.com/pesaflow/sacco-api/internal/models"
	"github.com/pesaflow/sacco-api/internal/store"
)

type testClient struct {
	server *httptest.Server
	token  string
}

func setupTestServer(t *testing.T) *testClient {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "sacco-test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	r := api.NewRouter(api.Deps{
		Store:      st,
		Ledger:     ledger.NewService(st),
		Tokens:     auth.NewManager("integration-test-secret", time.Hour),
		BcryptCost: bcrypt.MinCost,
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &testClient{server: server}
}

// registerAdmin registers an admin user and stores its token on the
// client for subsequent requests.
func (c *testClient) registerAdmin(t *testing.T, memberNumber string) {
	t.Helper()

	resp := c.request(t, "POST", "/api/auth/register", models.RegisterRequest{
		MemberNumber: memberNumber,
		FirstName:    "Admin",
		LastName:     "User",
		PhoneNumber:  "254700000000",
		Password:     "admin-password",
		Role:         models.RoleAdmin,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Failed to register admin: status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode register response: %v", err)
	}
	if result.Token == "" {
		t.Fatal("Expected non-empty token")
	}
	c.token = result.Token
}

// registerMember registers a regular member and returns its token
// without changing the client's own token.
func (c *testClient) registerMember(t *testing.T, memberNumber, phone string) string {
	t.Helper()

	resp := c.request(t, "POST", "/api/auth/register", models.RegisterRequest{
		MemberNumber: memberNumber,
		FirstName:    "Member",
		LastName:     memberNumber,
		PhoneNumber:  phone,
		Password:     "member-password",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Failed to register member %s: status %d: %s", memberNumber, resp.StatusCode, string(body))
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode register response: %v", err)
	}
	return result.Token
}

// request sends a JSON request using the client's stored token.
func (c *testClient) request(t *testing.T, method, path string, body interface{}) *http.Response {
	return c.requestAs(t, c.token, method, path, body)
}

// requestAs sends a JSON request with an explicit bearer token. An
// empty token sends no Authorization header.
func (c *testClient) requestAs(t *testing.T, token, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, c.server.URL+path, reqBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to send request: %v", err)
	}

	return resp
}

// decodeBody decodes a JSON response body into v and closes the body.
func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

// expectStatus fails the test when the response status differs,
// including the body in the failure message.
func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()

	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("Expected status %d, got %d: %s", want, resp.StatusCode, string(body))
	}
}

// createAccount creates an account for the member via the API.
func (c *testClient) createAccount(t *testing.T, memberNumber string) {
	t.Helper()

	resp := c.request(t, "POST", "/api/accounts", models.CreateAccountRequest{
		MemberNumber: memberNumber,
	})
	expectStatus(t, resp, http.StatusCreated)
	resp.Body.Close()
}

func depositRequest(memberNumber string, amount string, completed bool) models.CreateTransactionRequest {
	req := models.CreateTransactionRequest{
		MemberNumber: memberNumber,
		Type:         models.TypeDeposit,
		Amount:       decimal.RequireFromString(amount),
	}
	if completed {
		status := models.StatusCompleted
		req.Status = &status
	}
	return req
}

func withdrawalRequest(memberNumber string, amount string, completed bool) models.CreateTransactionRequest {
	req := models.CreateTransactionRequest{
		MemberNumber: memberNumber,
		Type:         models.TypeWithdrawal,
		Amount:       decimal.RequireFromString(amount),
	}
	if completed {
		status := models.StatusCompleted
		req.Status = &status
	}
	return req
}
