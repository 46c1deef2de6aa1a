package gen

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/segmentio/kafka-go"

	"demo/fretes/internal/model"
)

func SeedOnce() { gofakeit.Seed(time.Now().UnixNano()) }

func FakeFrete() model.FreteInput {
	return model.FreteInput{
		SellerID: gofakeit.Username(),
		SKU:      strings.ToUpper(gofakeit.LetterN(3) + gofakeit.DigitN(5)),
		Valor:    int64(gofakeit.Number(0, 50000)),
	}
}

// FakeFreteForSeller pins the seller so a batch lands on one partition key
// prefix and exercises the per-seller listing paths.
func FakeFreteForSeller(sellerID string) model.FreteInput {
	f := FakeFrete()
	f.SellerID = sellerID
	return f
}

func SendFrete(ctx context.Context, w *kafka.Writer, f model.FreteInput, source string) (int, error) {
	val, _ := json.Marshal(f)
	err := w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(f.SellerID + "/" + f.SKU),
		Value: val,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
			{Key: "source", Value: []byte(source)},
		},
	})
	if err != nil {
		return 0, err
	}
	log.Printf("produced key=%s/%s src=%s", f.SellerID, f.SKU, source)
	return 1, nil
}
