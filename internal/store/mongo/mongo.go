// Package mongo backs the transaction store with a remote MongoDB collection,
// the shared source of truth across devices.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pantry/internal/core"
	"pantry/internal/store"
)

const defaultTimeout = 10 * time.Second

type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func New(ctx context.Context, uri, database, collection string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Store{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// document mirrors the persisted transaction field set. The engine never
// updates stored documents, only inserts new ones.
type document struct {
	ID               string            `bson:"_id"`
	ProductID        string            `bson:"productId"`
	ProductName      string            `bson:"productName"`
	Category         string            `bson:"category"`
	Location         string            `bson:"location"`
	Type             string            `bson:"transactionType"`
	QuantityChange   float64           `bson:"quantityChange"`
	PreviousQuantity float64           `bson:"previousQuantity"`
	NewQuantity      float64           `bson:"newQuantity"`
	Cost             float64           `bson:"cost,omitempty"`
	ExpiryMillis     *int64            `bson:"expiryDate,omitempty"`
	UserID           string            `bson:"userId"`
	UserName         string            `bson:"userName,omitempty"`
	GroupID          string            `bson:"groupId"`
	Timestamp        int64             `bson:"timestamp"`
	Metadata         map[string]string `bson:"metadata,omitempty"`
}

func (s *Store) Insert(ctx context.Context, tx core.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.collection.InsertOne(ctx, toDocument(tx)); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, q store.Query) ([]core.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"groupId": q.GroupID}
	ts := bson.M{}
	if q.Start != nil {
		ts["$gte"] = q.Start.UnixMilli()
	}
	if q.End != nil {
		ts["$lte"] = q.End.UnixMilli()
	}
	if len(ts) > 0 {
		filter["timestamp"] = ts
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer cursor.Close(ctx)

	out := []core.Transaction{}
	for cursor.Next(ctx) {
		var doc document
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode transaction: %w", err)
		}
		out = append(out, fromDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func toDocument(tx core.Transaction) document {
	doc := document{
		ID:               tx.ID,
		ProductID:        tx.ProductID,
		ProductName:      tx.ProductName,
		Category:         tx.Category,
		Location:         tx.Location,
		Type:             string(tx.Type),
		QuantityChange:   tx.QuantityChange,
		PreviousQuantity: tx.PreviousQuantity,
		NewQuantity:      tx.NewQuantity,
		Cost:             tx.Cost,
		UserID:           tx.UserID,
		UserName:         tx.UserName,
		GroupID:          tx.GroupID,
		Timestamp:        tx.Timestamp,
		Metadata:         tx.Metadata,
	}
	if tx.ExpiryDate != nil {
		ms := tx.ExpiryDate.UnixMilli()
		doc.ExpiryMillis = &ms
	}
	return doc
}

func fromDocument(doc document) core.Transaction {
	tx := core.Transaction{
		ID:               doc.ID,
		ProductID:        doc.ProductID,
		ProductName:      doc.ProductName,
		Category:         doc.Category,
		Location:         doc.Location,
		Type:             core.TransactionType(doc.Type),
		QuantityChange:   doc.QuantityChange,
		PreviousQuantity: doc.PreviousQuantity,
		NewQuantity:      doc.NewQuantity,
		Cost:             doc.Cost,
		UserID:           doc.UserID,
		UserName:         doc.UserName,
		GroupID:          doc.GroupID,
		Timestamp:        doc.Timestamp,
		Metadata:         doc.Metadata,
	}
	if doc.ExpiryMillis != nil {
		t := time.UnixMilli(*doc.ExpiryMillis)
		tx.ExpiryDate = &t
	}
	return tx
}
