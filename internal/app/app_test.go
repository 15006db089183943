package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dvloznov/expense-analyzer/internal/attachments"
	"github.com/dvloznov/expense-analyzer/internal/config"
	"github.com/dvloznov/expense-analyzer/internal/domain"
	"github.com/dvloznov/expense-analyzer/internal/store"
)

func memoryConfig() *config.Config {
	cfg := config.Defaults()
	cfg.StorageBackend = store.BackendMemory
	return cfg
}

func TestOpen_KVAttachments(t *testing.T) {
	a, err := Open(context.Background(), memoryConfig())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	if _, ok := a.Blobs.(*attachments.KVBlobStore); !ok {
		t.Errorf("expected KV blob store, got %T", a.Blobs)
	}
	if a.Notion() != nil {
		t.Error("Notion should be disabled without a token")
	}
	w, err := a.Warehouse(context.Background())
	if err != nil || w != nil {
		t.Errorf("Warehouse should be disabled, got %v, %v", w, err)
	}
}

func TestOpen_Bolt(t *testing.T) {
	if raceEnabled {
		t.Skip("boltdb/bolt is not checkptr-clean under -race")
	}
	cfg := config.Defaults()
	cfg.StoragePath = filepath.Join(t.TempDir(), "expenses.db")

	a, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestClassifier(t *testing.T) {
	ctx := context.Background()

	t.Run("none", func(t *testing.T) {
		a, err := Open(ctx, memoryConfig())
		if err != nil {
			t.Fatal(err)
		}
		defer a.Close()

		c, err := a.Classifier(ctx)
		if err != nil || c != nil {
			t.Errorf("expected no classifier, got %v, %v", c, err)
		}
	})

	t.Run("bayes trained on ledger", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.Classifier = config.ClassifierBayes
		a, err := Open(ctx, cfg)
		if err != nil {
			t.Fatal(err)
		}
		defer a.Close()

		_, err = a.Repo.CommitBatch(ctx, []domain.Transaction{
			{ID: "1", Date: "2025-08-01", Amount: 200, Description: "Uber ride office", Category: domain.Commute, Type: domain.Debit},
			{ID: "2", Date: "2025-08-02", Amount: 900, Description: "Dmart groceries", Category: domain.GroceryShopping, Type: domain.Debit},
		})
		if err != nil {
			t.Fatal(err)
		}

		c, err := a.Classifier(ctx)
		if err != nil {
			t.Fatalf("Classifier failed: %v", err)
		}
		res, err := c.Classify(ctx, "uber ride home", nil, "")
		if err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
		if label, _, ok := res.Top(); !ok || label != string(domain.Commute) {
			t.Errorf("expected Commute, got %q", label)
		}
	})
}

func TestWarehouse_Disabled(t *testing.T) {
	a, err := Open(context.Background(), memoryConfig())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	e, err := a.Warehouse(context.Background())
	if err != nil || e != nil {
		t.Errorf("Warehouse() = %v, %v; want nil exporter without a project", e, err)
	}
}
