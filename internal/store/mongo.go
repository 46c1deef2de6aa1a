package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"demo/fretes/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "fretes"

// MongoRepo is the production backend. Filters, sort and pagination are
// pushed down to the server; the collection is never loaded into memory.
type MongoRepo struct {
	coll *mongo.Collection
}

func NewMongo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{coll: db.Collection(collectionName)}
}

// freteDoc is the persisted shape. It never leaves this file: callers get
// model.Frete with the ObjectID rendered as hex.
type freteDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	SellerID  string             `bson:"seller_id"`
	SKU       string             `bson:"sku"`
	Valor     int64              `bson:"valor"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at,omitempty"`
	CreatedBy string             `bson:"created_by,omitempty"`
	UpdatedBy string             `bson:"updated_by,omitempty"`
}

func (d freteDoc) toModel() model.Frete {
	m := model.Frete{
		ID:        d.ID.Hex(),
		SellerID:  d.SellerID,
		SKU:       d.SKU,
		Valor:     d.Valor,
		CreatedAt: d.CreatedAt,
		CreatedBy: d.CreatedBy,
		UpdatedBy: d.UpdatedBy,
	}
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		m.UpdatedAt = &t
	}
	return m
}

func (r *MongoRepo) Create(ctx context.Context, f model.Frete) (model.Frete, error) {
	doc := freteDoc{
		SellerID:  f.SellerID,
		SKU:       f.SKU,
		Valor:     f.Valor,
		CreatedAt: time.Now().UTC(),
		CreatedBy: systemActor,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.Frete{}, fmt.Errorf("%w: %s/%s", ErrDuplicateKey, f.SellerID, f.SKU)
		}
		return model.Frete{}, fmt.Errorf("insert frete: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toModel(), nil
}

func (r *MongoRepo) Find(ctx context.Context, filter Filter, page Page) ([]model.Frete, error) {
	q := bson.M{}
	if filter.SellerID != "" {
		q["seller_id"] = filter.SellerID
	}
	if filter.SKU != "" {
		q["sku"] = filter.SKU
	}
	if filter.ValorMin != nil || filter.ValorMax != nil {
		rng := bson.M{}
		if filter.ValorMin != nil {
			rng["$gte"] = *filter.ValorMin
		}
		if filter.ValorMax != nil {
			rng["$lte"] = *filter.ValorMax
		}
		q["valor"] = rng
	}

	opts := options.Find().SetSkip(page.Offset)
	if page.Limit > 0 {
		opts.SetLimit(page.Limit)
	}
	if len(page.Sort) > 0 {
		sort := bson.D{}
		for _, k := range page.Sort {
			dir := 1
			if k.Desc {
				dir = -1
			}
			sort = append(sort, bson.E{Key: k.Field, Value: dir})
			// documents without a sort field drop out of the sorted set
			if _, constrained := q[k.Field]; !constrained {
				q[k.Field] = bson.M{"$exists": true}
			}
		}
		opts.SetSort(sort)
	}

	cur, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("find fretes: %w", err)
	}
	defer cur.Close(ctx)

	var docs []freteDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode fretes: %w", err)
	}
	out := make([]model.Frete, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (r *MongoRepo) FindByID(ctx context.Context, id string) (model.Frete, bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// malformed id resolves to nothing
		return model.Frete{}, false, nil
	}
	var doc freteDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Frete{}, false, nil
		}
		return model.Frete{}, false, fmt.Errorf("find frete by id: %w", err)
	}
	return doc.toModel(), true, nil
}

func (r *MongoRepo) FindOneByKey(ctx context.Context, sellerID, sku string) (model.Frete, bool, error) {
	var doc freteDoc
	err := r.coll.FindOne(ctx, bson.M{"seller_id": sellerID, "sku": sku}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Frete{}, false, nil
		}
		return model.Frete{}, false, fmt.Errorf("find frete by key: %w", err)
	}
	return doc.toModel(), true, nil
}

func (r *MongoRepo) Update(ctx context.Context, id string, f model.Frete) (model.Frete, bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.Frete{}, false, nil
	}

	set := bson.M{
		"seller_id":  f.SellerID,
		"sku":        f.SKU,
		"valor":      f.Valor,
		"updated_at": time.Now().UTC(),
		"updated_by": systemActor,
	}
	after := options.After
	var doc freteDoc
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after},
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Frete{}, false, nil
		}
		if mongo.IsDuplicateKeyError(err) {
			return model.Frete{}, false, fmt.Errorf("%w: %s/%s", ErrDuplicateKey, f.SellerID, f.SKU)
		}
		return model.Frete{}, false, fmt.Errorf("update frete: %w", err)
	}
	return doc.toModel(), true, nil
}

func (r *MongoRepo) DeleteByKey(ctx context.Context, sellerID, sku string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"seller_id": sellerID, "sku": sku})
	if err != nil {
		return false, fmt.Errorf("delete frete: %w", err)
	}
	return res.DeletedCount > 0, nil
}
