// cmd/seedcatalog/main.go loads a product catalog into the database through
// the same upsert path the API uses, so stock changes land in the ledger.
//
// Usage: go run ./cmd/seedcatalog [-file catalog.json] [-reset]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Muletinha/projeto-emeece/internal/config"
	"github.com/Muletinha/projeto-emeece/internal/dto"
	"github.com/Muletinha/projeto-emeece/internal/infra"
	"github.com/Muletinha/projeto-emeece/internal/repository"
	"github.com/Muletinha/projeto-emeece/internal/service"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
)

func demoCatalog() []dto.UpsertProductRequest {
	item := func(id int64, name, desc, price string, stock int) dto.UpsertProductRequest {
		p := decimal.RequireFromString(price)
		return dto.UpsertProductRequest{ID: id, Name: name, Description: &desc, Price: &p, StockQty: &stock}
	}
	return []dto.UpsertProductRequest{
		item(1, "Caneca de cerâmica", "Caneca branca 300 ml", "9.99", 5),
		item(2, "Prato raso", "Prato de porcelana 26 cm", "14.50", 12),
		item(3, "Jogo de talheres", "24 peças em inox", "89.90", 3),
		item(4, "Toalha de mesa", "Algodão, 4 lugares", "39.00", 0),
	}
}

// catalogCache connects to REDIS_URL so every seeded product is evicted from
// the cache a running server reads. Returns nil when Redis is not reachable;
// the server then keeps serving cached copies until CATALOG_CACHE_TTL expires.
func catalogCache(redisURL string, ttl time.Duration) (*service.CatalogCache, func()) {
	rdb, err := infra.NewRedis(redisURL)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, func() {}
	}
	return service.NewCatalogCache(rdb, nil, ttl), func() { _ = rdb.Close() }
}

func main() {
	var (
		fileFlag  = flag.String("file", "", "JSON file with an array of products (defaults to a demo catalog)")
		resetFlag = flag.Bool("reset", false, "DROP the whole schema before seeding (same as DB_RESET_ON_BOOT=true)")
	)
	flag.Parse()

	red := color.New(color.FgRed, color.Bold)
	green := color.New(color.FgGreen)

	products := demoCatalog()
	if *fileFlag != "" {
		data, err := os.ReadFile(*fileFlag)
		if err != nil {
			red.Fprintf(os.Stderr, "read %s: %v\n", *fileFlag, err)
			os.Exit(1)
		}
		products = nil
		if err := json.Unmarshal(data, &products); err != nil {
			red.Fprintf(os.Stderr, "parse %s: %v\n", *fileFlag, err)
			os.Exit(1)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		red.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	dbCfg := cfg.Database()
	if *resetFlag {
		dbCfg.ResetOnBoot = true
	}
	db, err := infra.NewDatabase(dbCfg)
	if err != nil {
		red.Fprintf(os.Stderr, "db connect: %v\n", err)
		os.Exit(1)
	}

	cache, closeCache := catalogCache(cfg.RedisURL, cfg.CatalogCacheTTL)
	if cache == nil {
		color.Yellow("redis unreachable: a running server may serve stale products for up to %s", cfg.CatalogCacheTTL)
	}

	svc := service.NewProductService(
		repository.NewProductRepository(db),
		repository.NewCartRepository(db),
		repository.NewStockMovementRepository(db),
		cache, nil,
	)

	ctx := context.Background()
	failed := 0
	for _, req := range products {
		if req.Price == nil || req.StockQty == nil || req.ID < 1 || req.Name == "" {
			red.Printf("✗ %d: id, name, price and stock_qty are required\n", req.ID)
			failed++
			continue
		}
		p, err := svc.Upsert(ctx, req)
		if err != nil {
			red.Printf("✗ %d %s: %v\n", req.ID, req.Name, err)
			failed++
			continue
		}
		green.Printf("✓ %d %s (R$ %s, estoque %d)\n", p.ID, p.Name, p.Price.StringFixed(2), p.StockQty)
	}

	closeCache()
	fmt.Printf("%d produtos carregados, %d falhas\n", len(products)-failed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
