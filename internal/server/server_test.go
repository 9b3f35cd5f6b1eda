package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"spendwise/internal/config"
	"spendwise/internal/testutil"
	"spendwise/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

// testApp holds the full application stack for end-to-end tests.
type testApp struct {
	Router *gin.Engine
	Mail   *testutil.MailRecorder
}

func testConfig() *config.Config {
	return &config.Config{
		OTPTTL:          15 * time.Minute,
		MaxLoginFails:   5,
		LockoutWindow:   15 * time.Minute,
		DefaultCurrency: "INR",
		AdminAPIKey:     "admin-key",
		CORSOrigins:     []string{"*"},
	}
}

func setupApp(t *testing.T) *testApp {
	t.Helper()
	db := testutil.SetupTestDB(t)
	mail := &testutil.MailRecorder{}
	cfg := testConfig()
	return &testApp{Router: NewRouter(NewServices(db, mail, cfg), cfg), Mail: mail}
}

// request makes an HTTP request to the router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) mustStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) map[string]interface{} {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// signUp registers and verifies a user, returning the access and refresh tokens.
func (app *testApp) signUp(t *testing.T, username, email string) (string, string) {
	t.Helper()
	body := fmt.Sprintf(`{"full_name":"Test User","username":%q,"email":%q,"password":"password123","confirm_password":"password123"}`, username, email)
	app.mustStatus(t, app.request("POST", "/api/v1/auth/register", body, ""), http.StatusCreated)

	code := app.Mail.LastCode()
	if code == "" {
		t.Fatal("expected a verification code to be mailed")
	}
	result := app.mustStatus(t, app.request("POST", "/api/v1/auth/verify-otp",
		fmt.Sprintf(`{"email":%q,"otp":%q}`, email, code), ""), http.StatusOK)
	return result["access_token"].(string), result["refresh_token"].(string)
}

func TestHealthAndSwagger(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/api/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = app.request("GET", "/swagger/doc.json", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected swagger doc, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/budgets/utilization") {
		t.Error("expected utilization route in swagger doc")
	}
}

func TestAuthFlow(t *testing.T) {
	app := setupApp(t)

	t.Run("login is refused before verification", func(t *testing.T) {
		app.mustStatus(t, app.request("POST", "/api/v1/auth/register",
			`{"full_name":"Pending","username":"pending","email":"pending@test.com","password":"password123","confirm_password":"password123"}`, ""),
			http.StatusCreated)

		rec := app.request("POST", "/api/v1/auth/login", `{"email":"pending@test.com","password":"password123"}`, "")
		result := app.mustStatus(t, rec, http.StatusForbidden)
		if result["error"].(map[string]interface{})["code"] != "EMAIL_NOT_VERIFIED" {
			t.Errorf("expected EMAIL_NOT_VERIFIED, got %v", result["error"])
		}
	})

	access, refresh := app.signUp(t, "alice", "alice@test.com")

	t.Run("profile needs a token", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/profile", "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		result := app.mustStatus(t, app.request("GET", "/api/v1/profile", "", access), http.StatusOK)
		if result["user"].(map[string]interface{})["email"] != "alice@test.com" {
			t.Errorf("unexpected profile %v", result["user"])
		}
	})

	t.Run("refresh rotates the token", func(t *testing.T) {
		result := app.mustStatus(t, app.request("POST", "/api/v1/auth/refresh",
			fmt.Sprintf(`{"refresh_token":%q}`, refresh), ""), http.StatusOK)
		if result["refresh_token"] == refresh {
			t.Fatal("expected a new refresh token")
		}

		rec := app.request("POST", "/api/v1/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, refresh), "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected old refresh token to be rejected, got %d", rec.Code)
		}
	})

	t.Run("password reset", func(t *testing.T) {
		app.mustStatus(t, app.request("POST", "/api/v1/auth/password-reset/request", `{"email":"alice@test.com"}`, ""), http.StatusOK)

		rec := app.request("POST", "/api/v1/auth/password-reset/confirm",
			`{"email":"alice@test.com","new_password":"newpassword1","confirm_password":"newpassword1"}`, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected confirm before verify to fail, got %d", rec.Code)
		}

		code := app.Mail.LastCode()
		app.mustStatus(t, app.request("POST", "/api/v1/auth/password-reset/verify-otp",
			fmt.Sprintf(`{"email":"alice@test.com","otp":%q}`, code), ""), http.StatusOK)
		app.mustStatus(t, app.request("POST", "/api/v1/auth/password-reset/confirm",
			`{"email":"alice@test.com","new_password":"newpassword1","confirm_password":"newpassword1"}`, ""), http.StatusOK)

		app.mustStatus(t, app.request("POST", "/api/v1/auth/login",
			`{"email":"alice@test.com","password":"newpassword1"}`, ""), http.StatusOK)
	})
}

func TestBudgetAndAnalyticsFlow(t *testing.T) {
	app := setupApp(t)
	token, _ := app.signUp(t, "bob", "bob@test.com")

	month := time.Now().UTC().Format("2006-01")
	today := time.Now().UTC().Format(time.DateOnly)

	result := app.mustStatus(t, app.request("POST", "/api/v1/categories", `{"name":"Groceries"}`, token), http.StatusCreated)
	groceries := result["category"].(map[string]interface{})["id"].(string)
	result = app.mustStatus(t, app.request("POST", "/api/v1/categories", `{"name":"Rent"}`, token), http.StatusCreated)
	rent := result["category"].(map[string]interface{})["id"].(string)

	app.mustStatus(t, app.request("POST", "/api/v1/budgets",
		fmt.Sprintf(`{"category_id":%q,"month":%q,"amount":"500.00"}`, groceries, month), token), http.StatusCreated)
	app.mustStatus(t, app.request("POST", "/api/v1/budgets",
		fmt.Sprintf(`{"category_id":%q,"month":%q,"amount":"1000.00"}`, rent, month), token), http.StatusCreated)

	rec := app.request("POST", "/api/v1/budgets",
		fmt.Sprintf(`{"category_id":%q,"month":%q,"amount":"1.00"}`, rent, month), token)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected duplicate budget to conflict, got %d", rec.Code)
	}

	for _, e := range []struct{ cat, amount string }{{groceries, "450.00"}, {rent, "1100.00"}} {
		app.mustStatus(t, app.request("POST", "/api/v1/expenses",
			fmt.Sprintf(`{"category_id":%q,"amount":%q,"date":%q,"notes":"test"}`, e.cat, e.amount, today), token), http.StatusCreated)
	}

	t.Run("utilization", func(t *testing.T) {
		result := app.mustStatus(t, app.request("GET", "/api/v1/budgets/utilization", "", token), http.StatusOK)
		rows := result["data"].([]interface{})
		if len(rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(rows))
		}
		first := rows[0].(map[string]interface{})
		if first["category_name"] != "Rent" || first["status"] != "over_budget" {
			t.Errorf("expected Rent over budget first, got %v", first)
		}
		second := rows[1].(map[string]interface{})
		if second["utilization_percent"] != "90.00" || second["status"] != "critical" {
			t.Errorf("expected groceries at 90.00 critical, got %v", second)
		}
	})

	t.Run("budget list total", func(t *testing.T) {
		result := app.mustStatus(t, app.request("GET", "/api/v1/budgets?month="+month, "", token), http.StatusOK)
		if result["total_budget"] != "1500.00" {
			t.Errorf("expected total_budget 1500.00, got %v", result["total_budget"])
		}
	})

	t.Run("dashboard endpoints answer", func(t *testing.T) {
		for _, path := range []string{
			"/api/v1/dashboard/summary",
			"/api/v1/dashboard/analytics/trends",
			"/api/v1/dashboard/analytics/trends?period=weekly",
			"/api/v1/dashboard/analytics/category-breakdown?include_budget=true",
			"/api/v1/dashboard/analytics/budget-adherence",
			"/api/v1/dashboard/analytics/month-comparison",
			"/api/v1/dashboard/analytics/statistics",
		} {
			app.mustStatus(t, app.request("GET", path, "", token), http.StatusOK)
		}
	})

	t.Run("category in use cannot be deleted", func(t *testing.T) {
		rec := app.request("DELETE", "/api/v1/categories/"+rent, "", token)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("export csv", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/expenses/export/csv", "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "Groceries,450.00,INR") {
			t.Errorf("unexpected csv:\n%s", rec.Body.String())
		}
	})

	t.Run("other users see nothing", func(t *testing.T) {
		other, _ := app.signUp(t, "carol", "carol@test.com")
		result := app.mustStatus(t, app.request("GET", "/api/v1/budgets/utilization", "", other), http.StatusOK)
		if len(result["data"].([]interface{})) != 0 {
			t.Errorf("expected no rows for another user, got %v", result["data"])
		}
		rec := app.request("GET", "/api/v1/categories/"+rent, "", other)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestContactFlow(t *testing.T) {
	app := setupApp(t)

	app.mustStatus(t, app.request("POST", "/api/v1/contact",
		`{"full_name":"Dana","email":"dana@test.com","subject":"Hello","message":"Great app, thanks for building it"}`, ""), http.StatusCreated)

	rec := app.request("GET", "/api/v1/admin/contact-messages", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without admin key, got %d", rec.Code)
	}

	req := httptest.NewRequest("GET", "/api/v1/admin/contact-messages", nil)
	req.Header.Set("X-Admin-Key", "admin-key")
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	result := app.mustStatus(t, rec, http.StatusOK)
	if result["total_items"] != float64(1) {
		t.Errorf("expected one message, got %v", result["total_items"])
	}
}
