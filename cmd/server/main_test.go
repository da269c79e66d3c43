package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/iho/ledgercore/internal/adapter/http/middleware"
	"github.com/iho/ledgercore/internal/infrastructure/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		StorageDriver:           config.StorageMemory,
		RateLimitRPS:            100,
		RateLimitBurst:          100,
		CashAccountCodes:        []string{"1010", "1020"},
		ReceivablesAccountCode:  "1100",
		InventoryAccountCode:    "1200",
		PayablesAccountCode:     "2010",
		SalesTaxAccountCode:     "2040",
		SalesReturnsAccountCode: "4900",
	}
}

func TestListenAddr(t *testing.T) {
	t.Setenv("PORT", "")

	if got := listenAddr("9090"); got != ":9090" {
		t.Fatalf("expected :9090, got %s", got)
	}
	if got := listenAddr(""); got != ":8080" {
		t.Fatalf("expected default :8080, got %s", got)
	}

	t.Setenv("PORT", "7000")
	if got := listenAddr(""); got != ":7000" {
		t.Fatalf("expected PORT fallback :7000, got %s", got)
	}
}

func TestReturnAccountCodes(t *testing.T) {
	cfg := memoryConfig()
	cfg.SalesReturnsAccountCode = "4950"

	codes := returnAccountCodes(cfg)
	if codes.SalesReturns != "4950" || codes.Receivables != "1100" || codes.SalesTax != "2040" {
		t.Fatalf("unexpected codes %+v", codes)
	}
}

func TestCashFlowConfig(t *testing.T) {
	cf := cashFlowConfig(memoryConfig())

	if len(cf.CashAccountCodes) != 2 || cf.CashAccountCodes[0] != "1010" {
		t.Fatalf("expected configured cash codes, got %v", cf.CashAccountCodes)
	}
	if len(cf.PrepaidCodes) == 0 {
		t.Fatalf("expected default prepaid codes to survive")
	}
	if cf.PayablesCodes[0] != "2010" {
		t.Fatalf("expected payables 2010, got %v", cf.PayablesCodes)
	}
}

func TestBuildAppMemory(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := buildApp(context.Background(), memoryConfig(), zerolog.Nop(), reg, reg)
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	defer a.close()

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d: %s", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/seed", nil)
	req.Header.Set(middleware.TenantHeader, "tenant-1")
	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated && rec.Code != http.StatusOK {
		t.Fatalf("expected seed to succeed, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Fatalf("expected request metrics to be exposed")
	}

	if a.publisher == nil || a.limiter == nil {
		t.Fatalf("expected publisher and rate limiter to be wired")
	}
}

func TestBuildAppUnreachablePostgres(t *testing.T) {
	cfg := memoryConfig()
	cfg.StorageDriver = config.StoragePostgres
	cfg.DatabaseURL = "not a url"

	reg := prometheus.NewRegistry()
	if _, err := buildApp(context.Background(), cfg, zerolog.Nop(), reg, reg); err == nil {
		t.Fatalf("expected error for invalid database URL")
	}
}
