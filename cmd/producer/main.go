package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"demo/fretes/internal/gen"
	"demo/fretes/internal/model"
)

func main() {
	gen.SeedOnce()

	brokers := splitCSV(env("KAFKA_BROKERS", "localhost:9094"))
	topic := env("KAFKA_TOPIC", "fretes")
	glob := env("DATA_GLOB", "data/*.json")
	seller := os.Getenv("GEN_SELLER")
	log.Printf("brokers=%v topic=%s glob=%s", brokers, topic, glob)

	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}

	defer func() {
		if err := w.Close(); err != nil {
			log.Printf("close writer: %v", err)
		}
	}()

	paths, err := filepath.Glob(glob)
	if err != nil {
		log.Fatalf("glob %s: %v", glob, err)
	}

	// no files: generate N fretes instead
	if len(paths) == 0 {
		n := mustInt("1", os.Getenv("GEN_COUNT"))
		gap := mustInt("0", os.Getenv("GEN_INTERVAL_MS"))
		for i := 0; i < n; i++ {
			f := gen.FakeFrete()
			if seller != "" {
				f = gen.FakeFreteForSeller(seller)
			}
			if _, err := gen.SendFrete(context.Background(), w, f, "generated"); err != nil {
				log.Fatalf("produce: %v", err)
			}
			if gap > 0 {
				time.Sleep(time.Duration(gap) * time.Millisecond)
			}
		}
		log.Printf("produced %d generated message(s)", n)
		return
	}

	total := 0
	for _, p := range paths {
		n, err := produceFile(context.Background(), w, p)
		if err != nil {
			log.Printf("file %s: %v", p, err)
		}
		total += n
	}
	log.Printf("done: produced=%d from %d files", total, len(paths))
}

func produceFile(ctx context.Context, w *kafka.Writer, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("close %s: %v", path, err)
		}
	}()
	b, err := io.ReadAll(f)
	if err != nil {
		return 0, fmt.Errorf("read: %w", err)
	}

	var one model.FreteInput
	if err := json.Unmarshal(b, &one); err == nil && one.SellerID != "" && one.SKU != "" {
		return gen.SendFrete(ctx, w, one, filepath.Base(path))
	}
	var many []model.FreteInput
	if err := json.Unmarshal(b, &many); err == nil && len(many) > 0 {
		sum := 0
		for _, in := range many {
			n, err := gen.SendFrete(ctx, w, in, filepath.Base(path))
			if err != nil {
				log.Printf("produce: %v", err)
				continue
			}
			sum += n
		}
		return sum, nil
	}
	return 0, fmt.Errorf("invalid JSON in %s: must be a frete object or array of fretes", path)
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustInt(def string, s string) int {
	if s == "" {
		s = def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("invalid integer %q, using default %s", s, def)
		n, _ = strconv.Atoi(def)
	}
	return n
}

func splitCSV(s string) []string {
	ps := strings.Split(s, ",")
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
