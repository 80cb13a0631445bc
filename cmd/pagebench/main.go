package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/d60-Lab/post-batch/config"
	"github.com/d60-Lab/post-batch/internal/model"
	"github.com/d60-Lab/post-batch/internal/repository"
	"github.com/d60-Lab/post-batch/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// pct 取第 p 分位
func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	defer func() { _ = database.Close(db) }()
	if err := repository.Migrate(db); err != nil {
		panic(err)
	}
	repo := repository.NewPostRepository(db)
	ctx := context.Background()

	N := envInt("N", 10000)
	PAGE := envInt("PAGE", 10)
	REPEAT := envInt("REPEAT", 200)
	BATCH := envInt("BATCH", 100) // 每次 SaveAll 条数，对应一次 batch_insert 上限

	// seed：按 BATCH 分批 upsert，id 从 1 开始
	t0 := time.Now()
	batch := make([]model.Post, 0, BATCH)
	for i := 1; i <= N; i++ {
		batch = append(batch, model.Post{
			UserID: (i-1)/10 + 1,
			ID:     i,
			Title:  fmt.Sprintf("bench title %d", i),
			Body:   fmt.Sprintf("bench body %d", i),
		})
		if len(batch) == BATCH || i == N {
			if err := repo.SaveAll(ctx, batch); err != nil {
				panic(err)
			}
			batch = batch[:0]
		}
	}
	seedDur := time.Since(t0)
	total := must(repo.Count(ctx))

	pages := int(math.Ceil(float64(total) / float64(PAGE)))
	if pages == 0 {
		pages = 1
	}

	measure := func(pick func() int) []time.Duration {
		recs := make([]time.Duration, 0, REPEAT)
		for i := 0; i < REPEAT; i++ {
			p := pick()
			st := time.Now()
			if _, err := repo.FindPaginated(ctx, p, PAGE); err != nil {
				panic(err)
			}
			recs = append(recs, time.Since(st))
		}
		return recs
	}

	first := measure(func() int { return 0 })
	last := measure(func() int { return pages - 1 })
	random := measure(func() int { return rand.Intn(pages) })

	fmt.Printf("driver=%s N=%d PAGE=%d REPEAT=%d BATCH=%d total=%d pages=%d\n",
		cfg.Database.Driver, N, PAGE, REPEAT, BATCH, total, pages)
	fmt.Printf("Seed SaveAll total: %v, per batch: %v\n",
		seedDur, seedDur/time.Duration((N+BATCH-1)/BATCH))
	report := func(name string, recs []time.Duration) {
		fmt.Printf("%-12s p50: %v, p95: %v, p99: %v\n", name, pct(recs, 0.50), pct(recs, 0.95), pct(recs, 0.99))
	}
	report("first page", first)
	report("last page", last)
	report("random page", random)
}
