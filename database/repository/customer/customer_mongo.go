package customerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"appointly/database"
	"appointly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const opTimeout = 5 * time.Second

type MongoCustomerRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoCustomerRepo(coll *mongo.Collection) *MongoCustomerRepo {
	return &MongoCustomerRepo{coll: coll, now: time.Now}
}

func (r *MongoCustomerRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys:    bson.D{{Key: "phone", Value: 1}, {Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("customer_contact_unique"),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create customer indexes: %w", err)
	}
	return nil
}

func (r *MongoCustomerRepo) FindByContact(ctx context.Context, phone, email string) (*models.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var c models.Customer
	if err := r.coll.FindOne(ctx, bson.M{"phone": phone, "email": email}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("customer %s/%s: %w", phone, email, database.ErrNotFound)
		}
		return nil, fmt.Errorf("error fetching customer: %w", err)
	}
	return &c, nil
}

func (r *MongoCustomerRepo) Create(ctx context.Context, c *models.Customer) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if c.Bookings == nil {
		c.Bookings = []string{}
	}
	_, err := r.coll.InsertOne(ctx, c)
	return database.WrapWriteError("insert customer", err)
}

// AppendBooking adds the booking reference once, keeping insertion order.
func (r *MongoCustomerRepo) AppendBooking(ctx context.Context, customerID, bookingID string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	update := bson.M{
		"$addToSet": bson.M{"bookings": bookingID},
		"$set":      bson.M{"updated_at": r.now().UTC().Truncate(time.Millisecond)},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": customerID}, update)
	if err != nil {
		return fmt.Errorf("error appending booking to customer %s: %w", customerID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("customer %s: %w", customerID, database.ErrNotFound)
	}
	return nil
}

func (r *MongoCustomerRepo) SetBlocked(ctx context.Context, phone, email string, blocked bool) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"is_blocked": blocked,
		"updated_at": r.now().UTC().Truncate(time.Millisecond),
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"phone": phone, "email": email}, update)
	if err != nil {
		return fmt.Errorf("error updating customer block flag: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("customer %s/%s: %w", phone, email, database.ErrNotFound)
	}
	return nil
}
