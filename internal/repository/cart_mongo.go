package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/example/grocer/internal/models"
)

const cartCollection = "carts"

type cartDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	User      string             `bson:"user"`
	Version   int                `bson:"version"`
	Items     []cartLineDocument `bson:"items"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type cartLineDocument struct {
	Product         string          `bson:"product"`
	SelectedVariant variantDocument `bson:"selectedVariant"`
	Quantity        int             `bson:"quantity"`
	AddedAt         time.Time       `bson:"addedAt"`
}

type variantDocument struct {
	Unit      string               `bson:"unit"`
	Price     primitive.Decimal128 `bson:"price"`
	StockQty  int                  `bson:"stockQty"`
	Packaging string               `bson:"packaging"`
}

// MongoCartRepository keeps each cart as a single document, so every
// mutation is one atomic document write.
type MongoCartRepository struct {
	coll *mongo.Collection
}

// NewMongoCartRepository constructs a MongoCartRepository on db.
func NewMongoCartRepository(db *mongo.Database) *MongoCartRepository {
	return &MongoCartRepository{coll: db.Collection(cartCollection)}
}

// EnsureIndexes creates the one-cart-per-user index.
func (r *MongoCartRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("user_unique"),
	})
	if err != nil {
		return errors.Wrap(err, "create cart index")
	}
	return nil
}

// Load returns the user's cart.
func (r *MongoCartRepository) Load(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var doc cartDocument
	err := r.coll.FindOne(ctx, bson.M{"user": userID.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "find cart")
	}
	return doc.toModel()
}

// Save inserts a new cart (Version 0) or replaces the stored document when
// its version still matches.
func (r *MongoCartRepository) Save(ctx context.Context, cart *models.Cart) error {
	now := time.Now()
	doc, err := fromCartModel(cart)
	if err != nil {
		return err
	}
	doc.UpdatedAt = now
	doc.Version = cart.Version + 1

	if cart.Version == 0 {
		doc.CreatedAt = now
		if _, err := r.coll.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrStaleCart
			}
			return errors.Wrap(err, "insert cart")
		}
	} else {
		filter := bson.M{"user": doc.User, "version": cart.Version}
		res, err := r.coll.ReplaceOne(ctx, filter, doc)
		if err != nil {
			return errors.Wrap(err, "replace cart")
		}
		if res.MatchedCount == 0 {
			return ErrStaleCart
		}
	}

	cart.Version = doc.Version
	cart.UpdatedAt = now
	return nil
}

// Clear empties the user's cart. A missing cart is not an error.
func (r *MongoCartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"user": userID.String()},
		bson.M{
			"$set": bson.M{"items": bson.A{}, "updatedAt": time.Now()},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}

func fromCartModel(cart *models.Cart) (cartDocument, error) {
	doc := cartDocument{
		User:      cart.UserID.String(),
		Items:     make([]cartLineDocument, 0, len(cart.Items)),
		CreatedAt: cart.CreatedAt,
	}
	for _, item := range cart.Items {
		price, err := primitive.ParseDecimal128(item.Price.String())
		if err != nil {
			return cartDocument{}, errors.Wrapf(err, "encode price %s", item.Price)
		}
		added := item.CreatedAt
		if added.IsZero() {
			added = time.Now()
		}
		doc.Items = append(doc.Items, cartLineDocument{
			Product: item.ProductID.String(),
			SelectedVariant: variantDocument{
				Unit:      item.Unit,
				Price:     price,
				StockQty:  item.StockQty,
				Packaging: item.Packaging,
			},
			Quantity: item.Quantity,
			AddedAt:  added,
		})
	}
	return doc, nil
}

func (d cartDocument) toModel() (*models.Cart, error) {
	userID, err := uuid.Parse(d.User)
	if err != nil {
		return nil, errors.Wrap(err, "parse cart user")
	}

	cart := &models.Cart{
		UserID:  userID,
		Version: d.Version,
		Items:   make([]models.CartItem, 0, len(d.Items)),
	}
	cart.CreatedAt = d.CreatedAt
	cart.UpdatedAt = d.UpdatedAt

	for _, line := range d.Items {
		productID, err := uuid.Parse(line.Product)
		if err != nil {
			return nil, errors.Wrap(err, "parse cart product")
		}
		price, err := decimal.NewFromString(line.SelectedVariant.Price.String())
		if err != nil {
			return nil, errors.Wrap(err, "decode price")
		}
		item := models.CartItem{
			ProductID: productID,
			Unit:      line.SelectedVariant.Unit,
			Price:     price,
			StockQty:  line.SelectedVariant.StockQty,
			Packaging: line.SelectedVariant.Packaging,
			Quantity:  line.Quantity,
		}
		item.CreatedAt = line.AddedAt
		cart.Items = append(cart.Items, item)
	}
	return cart, nil
}
