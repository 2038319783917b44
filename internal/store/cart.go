package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/allevo/cloud-store/internal/model"
)

// CartCollection is the collection holding one document per owner.
const CartCollection = "carts"

type cartDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Username   string             `bson:"username"`
	InsertDate time.Time          `bson:"insertDate"`
	UpdateDate time.Time          `bson:"updateDate"`
	Products   []productDocument  `bson:"products"`
}

type productDocument struct {
	ID          int64     `bson:"id"`
	Title       string    `bson:"title"`
	Price       bsonPrice `bson:"price"`
	Description string    `bson:"description"`
}

// bsonPrice is written as Decimal128. Reads also accept doubles and
// integers, which is how older cart documents store prices.
type bsonPrice struct {
	decimal.Decimal
}

func (p bsonPrice) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d, err := toDecimal128(p.Decimal)
	if err != nil {
		return 0, nil, err
	}
	return bson.MarshalValue(d)
}

func (p *bsonPrice) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Decimal128:
		d, ok := raw.Decimal128OK()
		if !ok {
			return fmt.Errorf("malformed decimal128 price")
		}
		v, err := decimal.NewFromString(d.String())
		if err != nil {
			return fmt.Errorf("decode decimal128 price %s: %w", d, err)
		}
		p.Decimal = v
	case bsontype.Double:
		f, ok := raw.DoubleOK()
		if !ok {
			return fmt.Errorf("malformed double price")
		}
		p.Decimal = decimal.NewFromFloat(f)
	case bsontype.Int32:
		i, ok := raw.Int32OK()
		if !ok {
			return fmt.Errorf("malformed int32 price")
		}
		p.Decimal = decimal.NewFromInt32(i)
	case bsontype.Int64:
		i, ok := raw.Int64OK()
		if !ok {
			return fmt.Errorf("malformed int64 price")
		}
		p.Decimal = decimal.NewFromInt(i)
	default:
		return fmt.Errorf("unsupported price type %s", t)
	}
	return nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("invalid price %s: %w", d, err)
	}
	return v, nil
}

// MongoStore is the MongoDB-backed cart store.
type MongoStore struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoStore creates a cart store over the carts collection of db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		collection: db.Collection(CartCollection),
		now:        time.Now,
	}
}

// EnsureIndexes creates the unique owner index. Safe to call on every start.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create carts index: %w", classify(ctx, err))
	}
	return nil
}

// GetByOwner returns the cart of owner or ErrCartNotFound.
func (s *MongoStore) GetByOwner(ctx context.Context, owner string) (*model.Cart, error) {
	var doc cartDocument
	err := s.collection.FindOne(ctx, bson.M{"username": owner}).Decode(&doc)
	if err != nil {
		return nil, classify(ctx, err)
	}
	return doc.toModel()
}

// AppendItem creates the cart if absent and appends item in one atomic
// server-side operation, returning the post-image.
func (s *MongoStore) AppendItem(ctx context.Context, owner string, item model.CartItem) (*model.Cart, error) {
	if _, err := toDecimal128(item.Price); err != nil {
		return nil, err
	}
	product := productDocument{
		ID:          item.ID,
		Title:       item.Title,
		Price:       bsonPrice{item.Price},
		Description: item.Description,
	}

	doc, err := s.upsert(ctx, owner, product)
	// Two concurrent first-appends can race on the unique index; the loser
	// finds the document on the second attempt and takes the update branch.
	if mongo.IsDuplicateKeyError(err) {
		doc, err = s.upsert(ctx, owner, product)
	}
	if err != nil {
		return nil, classify(ctx, err)
	}
	return doc.toModel()
}

// upsert runs the append as an update pipeline so updateDate can be compared
// with the stored value: it becomes now, or the previous updateDate plus one
// millisecond when the clock has not moved past it.
func (s *MongoStore) upsert(ctx context.Context, owner string, product productDocument) (*cartDocument, error) {
	now := s.now().UTC().Truncate(time.Millisecond)
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "insertDate", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$insertDate", now}}}},
			{Key: "products", Value: bson.D{{Key: "$concatArrays", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$products", bson.A{}}}},
				bson.A{bson.D{{Key: "$literal", Value: product}}},
			}}}},
			{Key: "updateDate", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$gt", Value: bson.A{now, "$updateDate"}}},
				now,
				bson.D{{Key: "$add", Value: bson.A{"$updateDate", 1}}},
			}}}},
		}}},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc cartDocument
	if err := s.collection.FindOneAndUpdate(ctx, bson.M{"username": owner}, update, opts).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *cartDocument) toModel() (*model.Cart, error) {
	items := make([]model.CartItem, 0, len(d.Products))
	for _, p := range d.Products {
		items = append(items, model.CartItem{
			ID:          p.ID,
			Title:       p.Title,
			Price:       p.Price.Decimal,
			Description: p.Description,
		})
	}
	return &model.Cart{
		Owner:     d.Username,
		CreatedAt: d.InsertDate.UTC(),
		UpdatedAt: d.UpdateDate.UTC(),
		Items:     items,
	}, nil
}
