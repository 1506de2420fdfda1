//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	adaptershttp "github.com/iho/branchledger/internal/adapter/http"
	"github.com/iho/branchledger/internal/adapter/http/dto"
	"github.com/iho/branchledger/internal/adapter/http/handler"
	redisrepo "github.com/iho/branchledger/internal/adapter/repository/redis"
	infraredis "github.com/iho/branchledger/internal/infrastructure/redis"
	"github.com/iho/branchledger/internal/usecase"
	"github.com/iho/branchledger/tests/testutil"
)

func TestAccountCreation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	ucs := testDB.NewUseCases()
	routerCfg := adaptershttp.RouterConfig{
		AccountHandler: handler.NewAccountHandler(ucs.Accounts),
		LedgerHandler:  handler.NewLedgerHandler(ucs.Ledgers),
		EntryHandler:   handler.NewEntryHandler(ucs.Entries),
		ReportHandler:  handler.NewReportHandler(ucs.Reports),
		HealthHandler:  handler.NewHealthHandler(handler.HealthCheck{Name: "postgres", Ping: testDB.Pool.Ping}),
		Logger:         zerolog.Nop(),
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		client, err := infraredis.NewClient(ctx, redisURL)
		if err != nil {
			t.Fatalf("failed to connect to redis: %v", err)
		}
		defer client.Close()
		routerCfg.IdempotencyStore = redisrepo.NewIdempotencyStore(client)
		routerCfg.IdempotencyTTL = time.Minute
	}
	router := adaptershttp.NewRouter(routerCfg)

	t.Run("create account seeds the system chart", func(t *testing.T) {
		body, _ := json.Marshal(dto.CreateAccountRequest{
			Label:      testutil.UniqueLabel("books"),
			BranchName: "Kyiv",
			Currency:   "uah",
		})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var account dto.AccountResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &account); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if account.Currency != "UAH" {
			t.Errorf("expected currency UAH, got %s", account.Currency)
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/"+account.ID+"/ledgers", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var ledgers []dto.LedgerResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &ledgers); err != nil {
			t.Fatalf("failed to decode ledgers: %v", err)
		}
		if len(ledgers) == 0 {
			t.Fatal("expected seeded ledgers")
		}
	})

	t.Run("duplicate label is rejected", func(t *testing.T) {
		label := testutil.UniqueLabel("dup")
		if _, err := ucs.Accounts.CreateAccount(ctx, usecase.CreateAccountInput{Label: label, BranchName: "Lviv"}); err != nil {
			t.Fatalf("first create failed: %v", err)
		}

		body, _ := json.Marshal(dto.CreateAccountRequest{Label: label, BranchName: "Lviv"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("readiness pings postgres", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}
