package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratemongo "github.com/golang-migrate/migrate/v4/database/mongodb"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"demo/fretes/internal/model"
	"demo/fretes/internal/service"
	"demo/fretes/internal/store"
	"demo/fretes/internal/validate"
)

//go:embed migrations/*.json
var migrationsFS embed.FS

func main() {
	httpAddr := env("HTTP_ADDR", ":8082")
	storeKind := env("STORE", "mongo")
	mongoURL := env("MONGO_URL", "mongodb://localhost:27017")
	mongoDB := env("MONGO_DB", "fretes_db")
	kbrokers := splitCSV(env("KAFKA_BROKERS", "localhost:9094"))
	ktopic := env("KAFKA_TOPIC", "fretes")
	kgroup := env("KAFKA_GROUP", "fretes-consumers")
	consume := env("CONSUME", "1") == "1"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		cancel()
	}()

	var repo store.Repository
	switch storeKind {
	case "memory":
		log.Printf("store: in-memory (dev mode)")
		repo = store.NewMemory()
	default:
		connCtx, connCancel := context.WithTimeout(ctx, 10*time.Second)
		client, err := mongo.Connect(connCtx, options.Client().ApplyURI(mongoURL))
		connCancel()
		if err != nil {
			log.Fatalf("mongo connect: %v", err)
		}
		defer func() {
			dcCtx, dcCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer dcCancel()
			_ = client.Disconnect(dcCtx)
		}()

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err = client.Ping(pingCtx, readpref.Primary())
		pingCancel()
		if err != nil {
			log.Fatalf("mongo ping: %v", err)
		}

		if err := runMigrations(client, mongoDB); err != nil {
			log.Fatalf("migrations: %v", err)
		}
		log.Printf("store: mongo db=%s", mongoDB)
		repo = store.NewMongo(client.Database(mongoDB))
	}

	svc := service.New(repo)

	if consume {
		log.Printf("kafka brokers=%v topic=%s group=%s", kbrokers, ktopic, kgroup)
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:     kbrokers,
			Topic:       ktopic,
			GroupID:     kgroup,
			MinBytes:    1e3,
			MaxBytes:    10e6,
			StartOffset: kafka.FirstOffset,
		})
		defer reader.Close()
		go consumeLoop(ctx, reader, svc)
	}

	srv := &http.Server{Addr: httpAddr, Handler: newMux(svc)}
	go func() {
		log.Printf("http: listening on %s", httpAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	shCtx, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(shCtx)
	log.Println("bye")
}

// consumeLoop feeds fee-create messages into the service. Bad payloads and
// business rejections are committed so they are not redelivered; store
// failures leave the offset uncommitted for a later retry.
func consumeLoop(ctx context.Context, reader *kafka.Reader, svc *service.Service) {
	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Printf("kafka fetch: %v", err)
			time.Sleep(500 * time.Millisecond)
			continue
		}

		var in model.FreteInput
		if err := json.Unmarshal(m.Value, &in); err != nil {
			log.Printf("invalid message at offset %d: %v", m.Offset, err)
			_ = reader.CommitMessages(context.Background(), m)
			continue
		}
		if err := validate.ValidateFrete(in.SellerID, in.SKU, in.Valor); err != nil {
			log.Printf("invalid frete at offset %d: %v", m.Offset, err)
			_ = reader.CommitMessages(context.Background(), m)
			continue
		}

		if _, err := svc.Create(ctx, in); err != nil {
			if errors.Is(err, service.ErrAlreadyExists) || errors.Is(err, service.ErrInvalidValue) {
				log.Printf("frete rejected (offset=%d): %v", m.Offset, err)
				_ = reader.CommitMessages(ctx, m)
				continue
			}
			log.Printf("store create failed (offset=%d): %v", m.Offset, err)
			continue
		}

		if err := reader.CommitMessages(ctx, m); err != nil {
			log.Printf("commit failed: %v", err)
		}
	}
}

func runMigrations(client *mongo.Client, dbName string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	drv, err := migratemongo.WithInstance(client, &migratemongo.Config{DatabaseName: dbName})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, dbName, drv)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
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
