package backend

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"bankgold/internal/config"
	"bankgold/internal/core"
	"bankgold/internal/log"
	"bankgold/internal/sheets"
	"bankgold/internal/sheets/memory"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "file", cfg: Config{Type: FileBackend}},
		{name: "memory", cfg: Config{Type: MemoryBackend}},
		{name: "invalid type", cfg: Config{Type: "ftp"}, wantErr: "valid: [file sheets memory]"},
		{name: "sheets without id", cfg: Config{Type: SheetsBackend}, wantErr: "Spreadsheet ID"},
		{name: "store without path", cfg: Config{Type: FileBackend, StoreResults: true}, wantErr: "SQLite database path"},
		{
			name:    "amqp without queue",
			cfg:     Config{Type: FileBackend, AMQPURL: "amqp://localhost", AMQPExchange: "runs"},
			wantErr: "exchange and queue",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "ftp"}); err == nil {
		t.Fatal("expected error for invalid backend")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  "file",
		StoreResults: true,
		SQLiteDBPath: "data/bankgold.db",
		AMQPURL:      "amqp://localhost",
		AMQPExchange: "bankgold",
		AMQPQueue:    "runs",
	})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != FileBackend || !cfg.StoreResults || cfg.SQLiteDBPath != "data/bankgold.db" || cfg.AMQPQueue != "runs" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestFileRouterRoundTrip(t *testing.T) {
	ctx := context.Background()
	router := NewFileRouter()
	tbl := core.Table{
		Header: []string{"Date", "Price", "Bankruptcies"},
		Rows:   [][]string{{"2020-01-31", "10.5", "100.0"}},
	}

	for _, ext := range []string{".csv", ".xlsx"} {
		t.Run(ext, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "merged"+ext)
			if err := router.WriteTable(ctx, dest, tbl); err != nil {
				t.Fatalf("WriteTable() error = %v", err)
			}
			got, err := router.ReadSheet(ctx, sheets.Ref{Source: dest})
			if err != nil {
				t.Fatalf("ReadSheet() error = %v", err)
			}
			if got.Len() != 1 || got.Header[2] != "Bankruptcies" || got.Cell(0, 0) != "2020-01-31" {
				t.Fatalf("unexpected table: %+v", got)
			}
		})
	}
}

func TestFileRouterUnsupportedExtension(t *testing.T) {
	ctx := context.Background()
	router := NewFileRouter()

	if _, err := router.ReadSheet(ctx, sheets.Ref{Source: "prices.json"}); err == nil {
		t.Fatal("expected read error for .json")
	}
	if err := router.WriteTable(ctx, filepath.Join(t.TempDir(), "out.txt"), core.Table{}); err == nil {
		t.Fatal("expected write error for .txt output")
	}
}

func TestFileRouterMissingFile(t *testing.T) {
	_, err := NewFileRouter().ReadSheet(context.Background(), sheets.Ref{Source: filepath.Join(t.TempDir(), "absent.csv")})
	if !errors.Is(err, core.ErrMissingInput) {
		t.Fatalf("error = %v, want ErrMissingInput", err)
	}
}

func TestSpreadsheetBackendIgnoresSource(t *testing.T) {
	store := memory.New()
	store.Put(sheets.Ref{Sheet: "Yearly"}, [][]string{{"Country", "2020"}, {"China", "12"}})

	b := spreadsheetBackend{reader: store, files: NewFileRouter()}
	got, err := b.ReadSheet(context.Background(), sheets.Ref{Source: "gold.xlsx", Sheet: " Yearly "})
	if err != nil {
		t.Fatalf("ReadSheet() error = %v", err)
	}
	if got.Len() != 1 || got.Cell(0, 0) != "China" {
		t.Fatalf("unexpected table: %+v", got)
	}
}

func TestCreateBackendMemory(t *testing.T) {
	store := memory.New()
	result, err := NewFactory(log.Discard()).CreateBackend(context.Background(), Config{Type: MemoryBackend, Memory: store})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	if result.Backend != store {
		t.Fatal("expected the provided memory store")
	}
	if result.Store != nil || result.Publisher != nil {
		t.Fatalf("expected no sinks, got store=%v publisher=%v", result.Store, result.Publisher)
	}
	if err := result.Cleanup(); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
}

func TestCreateBackendWithResultStore(t *testing.T) {
	cfg := Config{
		Type:         FileBackend,
		StoreResults: true,
		SQLiteDBPath: filepath.Join(t.TempDir(), "bankgold.db"),
	}
	result, err := NewFactory(log.Discard()).CreateBackend(context.Background(), cfg)
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	if _, ok := result.Backend.(FileRouter); !ok {
		t.Fatalf("backend = %T, want FileRouter", result.Backend)
	}
	if result.Store == nil {
		t.Fatal("expected a result store")
	}
	if err := result.Cleanup(); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SheetsBackend})
	if err == nil {
		t.Fatal("expected validation error")
	}
}
