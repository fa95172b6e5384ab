package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pedraum/payments/internal/cache"
	pricingdomain "github.com/pedraum/payments/internal/pricing/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupPricingTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	statements := []string{
		`CREATE TABLE leads (id TEXT PRIMARY KEY, title TEXT DEFAULT '', price REAL, value REAL, amount REAL, valor REAL, preco REAL)`,
		`CREATE TABLE opportunities (id TEXT PRIMARY KEY, title TEXT DEFAULT '', price REAL, value REAL, amount REAL, valor REAL, preco REAL)`,
		`CREATE TABLE lead_opportunities (id TEXT PRIMARY KEY, title TEXT DEFAULT '', price REAL, value REAL, amount REAL, valor REAL, preco REAL)`,
		`CREATE TABLE demand_leads (demand_id TEXT, lead_id TEXT, price REAL, value REAL, amount REAL, valor REAL, preco REAL, PRIMARY KEY (demand_id, lead_id))`,
		`CREATE TABLE demands (id TEXT PRIMARY KEY, title TEXT DEFAULT '', price REAL, value REAL, amount REAL, valor REAL, preco REAL)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return db
}

func newResolver(db *gorm.DB) *Service {
	return &Service{
		db:    db,
		log:   zap.NewNop(),
		cache: cache.NewTTLCache[string, pricingdomain.Quote](),
	}
}

func TestResolveDirectLead(t *testing.T) {
	db := setupPricingTestDB(t)
	db.Exec(`INSERT INTO leads (id, price) VALUES ('L1', 50)`)
	svc := newResolver(db)

	quote, err := svc.Resolve(context.Background(), pricingdomain.ResolveRequest{ResourceID: "L1"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if quote.Price != 50 || quote.Path != "leads/L1" || quote.Field != "price" {
		t.Fatalf("unexpected quote %+v", quote)
	}
}

func TestResolveFieldOrder(t *testing.T) {
	db := setupPricingTestDB(t)
	// value outranks valor in the fixed field order.
	db.Exec(`INSERT INTO leads (id, valor, value) VALUES ('L1', 80, 75)`)
	svc := newResolver(db)

	quote, err := svc.Resolve(context.Background(), pricingdomain.ResolveRequest{ResourceID: "L1"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if quote.Field != "value" || quote.Price != 75 {
		t.Fatalf("expected value field to win, got %+v", quote)
	}
}

func TestResolveSkipsNonPositive(t *testing.T) {
	db := setupPricingTestDB(t)
	db.Exec(`INSERT INTO leads (id, price, valor) VALUES ('L1', 0, 60)`)
	svc := newResolver(db)

	quote, err := svc.Resolve(context.Background(), pricingdomain.ResolveRequest{ResourceID: "L1"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if quote.Field != "valor" || quote.Price != 60 {
		t.Fatalf("expected zero price skipped, got %+v", quote)
	}
}

func TestResolveLocationFallbackOrder(t *testing.T) {
	db := setupPricingTestDB(t)
	db.Exec(`INSERT INTO lead_opportunities (id, value) VALUES ('L1', 30)`)
	db.Exec(`INSERT INTO demands (id, price) VALUES ('D1', 99)`)
	svc := newResolver(db)

	quote, err := svc.Resolve(context.Background(), pricingdomain.ResolveRequest{ResourceID: "L1", RelatedID: "D1"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if quote.Path != "lead_opportunities/L1" {
		t.Fatalf("expected legacy opportunity record to win over demand, got %+v", quote)
	}
}

func TestResolveNestedDemandLead(t *testing.T) {
	db := setupPricingTestDB(t)
	db.Exec(`INSERT INTO demand_leads (demand_id, lead_id, preco) VALUES ('D1', 'L1', 45)`)
	svc := newResolver(db)

	quote, err := svc.Resolve(context.Background(), pricingdomain.ResolveRequest{ResourceID: "L1", RelatedID: "D1"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if quote.Path != "demand_leads/D1/L1" || quote.Field != "preco" {
		t.Fatalf("unexpected quote %+v", quote)
	}
}

func TestResolveParentDemandFallback(t *testing.T) {
	db := setupPricingTestDB(t)
	db.Exec(`INSERT INTO demands (id, amount) VALUES ('D1', 120)`)
	svc := newResolver(db)

	quote, err := svc.Resolve(context.Background(), pricingdomain.ResolveRequest{ResourceID: "L1", RelatedID: "D1"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if quote.Path != "demands/D1" || quote.Field != "amount" {
		t.Fatalf("unexpected quote %+v", quote)
	}
}

func TestResolveHintCheckedFirst(t *testing.T) {
	db := setupPricingTestDB(t)
	db.Exec(`INSERT INTO leads (id, price) VALUES ('L1', 50)`)
	db.Exec(`INSERT INTO demands (id, price) VALUES ('D9', 200)`)
	svc := newResolver(db)

	quote, err := svc.Resolve(context.Background(), pricingdomain.ResolveRequest{
		ResourceID: "L1",
		PathHint:   "demands/D9",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if quote.Path != "demands/D9" || quote.Price != 200 {
		t.Fatalf("expected hint to win, got %+v", quote)
	}
}

func TestResolveHintWithoutFieldFallsThrough(t *testing.T) {
	db := setupPricingTestDB(t)
	db.Exec(`INSERT INTO demands (id) VALUES ('D9')`)
	db.Exec(`INSERT INTO leads (id, price) VALUES ('L1', 50)`)
	svc := newResolver(db)

	quote, err := svc.Resolve(context.Background(), pricingdomain.ResolveRequest{
		ResourceID: "L1",
		PathHint:   "demands/D9",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if quote.Path != "leads/L1" {
		t.Fatalf("expected fallthrough to ordered list, got %+v", quote)
	}
}

func TestResolveUnknownHintIgnored(t *testing.T) {
	db := setupPricingTestDB(t)
	db.Exec(`INSERT INTO leads (id, price) VALUES ('L1', 50)`)
	svc := newResolver(db)

	quote, err := svc.Resolve(context.Background(), pricingdomain.ResolveRequest{
		ResourceID: "L1",
		PathHint:   "machines/M1",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if quote.Path != "leads/L1" {
		t.Fatalf("expected unknown hint ignored, got %+v", quote)
	}
}

func TestResolveNotFound(t *testing.T) {
	db := setupPricingTestDB(t)
	svc := newResolver(db)

	_, err := svc.Resolve(context.Background(), pricingdomain.ResolveRequest{ResourceID: "L404", RelatedID: "D404"})
	if !errors.Is(err, pricingdomain.ErrPriceNotFound) {
		t.Fatalf("expected ErrPriceNotFound, got %v", err)
	}
}

func TestResolveRequiresResourceID(t *testing.T) {
	db := setupPricingTestDB(t)
	svc := newResolver(db)

	_, err := svc.Resolve(context.Background(), pricingdomain.ResolveRequest{})
	if !errors.Is(err, pricingdomain.ErrInvalidResource) {
		t.Fatalf("expected ErrInvalidResource, got %v", err)
	}
}

func TestResolveCachesQuote(t *testing.T) {
	db := setupPricingTestDB(t)
	db.Exec(`INSERT INTO leads (id, price) VALUES ('L1', 50)`)
	svc := newResolver(db)
	ctx := context.Background()

	first, err := svc.Resolve(ctx, pricingdomain.ResolveRequest{ResourceID: "L1"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// Underlying row changes, but the cached quote is still served.
	db.Exec(`UPDATE leads SET price = 999 WHERE id = 'L1'`)
	second, err := svc.Resolve(ctx, pricingdomain.ResolveRequest{ResourceID: "L1"})
	if err != nil {
		t.Fatalf("resolve cached: %v", err)
	}
	if second.Price != first.Price {
		t.Fatalf("expected cached price %v, got %v", first.Price, second.Price)
	}
}
