package scheduleRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"appointly/database"
	"appointly/models"
	"appointly/services/slots"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const opTimeout = 5 * time.Second

// MongoScheduleRepo implements ScheduleRepository on the "schedules" collection.
type MongoScheduleRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoScheduleRepo wraps the given collection.
func NewMongoScheduleRepo(coll *mongo.Collection) *MongoScheduleRepo {
	return &MongoScheduleRepo{coll: coll, now: time.Now}
}

func (r *MongoScheduleRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys:    bson.D{{Key: "year", Value: 1}, {Key: "month", Value: 1}, {Key: "day", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("schedule_date_unique"),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create schedule indexes: %w", err)
	}
	return nil
}

func (r *MongoScheduleRepo) Create(ctx context.Context, s *models.Schedule) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if s.Bookings == nil {
		s.Bookings = []string{}
	}
	_, err := r.coll.InsertOne(ctx, s)
	return database.WrapWriteError("insert schedule", err)
}

func (r *MongoScheduleRepo) findOne(ctx context.Context, filter bson.M, what string) (*models.Schedule, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var s models.Schedule
	if err := r.coll.FindOne(ctx, filter).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("schedule %s: %w", what, database.ErrNotFound)
		}
		return nil, fmt.Errorf("error fetching schedule %s: %w", what, err)
	}
	return &s, nil
}

func (r *MongoScheduleRepo) GetByID(ctx context.Context, id string) (*models.Schedule, error) {
	return r.findOne(ctx, bson.M{"id": id}, id)
}

func (r *MongoScheduleRepo) GetByDate(ctx context.Context, key models.DateKey) (*models.Schedule, error) {
	filter := bson.M{"year": key.Year, "month": key.Month, "day": key.Day}
	return r.findOne(ctx, filter, key.Year+"-"+key.Month+"-"+key.Day)
}

func (r *MongoScheduleRepo) ListByDates(ctx context.Context, keys []models.DateKey) ([]models.Schedule, error) {
	if len(keys) == 0 {
		return []models.Schedule{}, nil
	}
	or := make(bson.A, 0, len(keys))
	for _, k := range keys {
		or = append(or, bson.M{"year": k.Year, "month": k.Month, "day": k.Day})
	}
	return r.find(ctx, bson.M{"$or": or})
}

func (r *MongoScheduleRepo) List(ctx context.Context) ([]models.Schedule, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoScheduleRepo) find(ctx context.Context, filter bson.M) ([]models.Schedule, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing schedules: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.Schedule{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding schedules: %w", err)
	}
	return out, nil
}

func (r *MongoScheduleRepo) Replace(ctx context.Context, s *models.Schedule, expectedUpdatedAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"id": s.ID, "updated_at": expectedUpdatedAt}
	update := bson.M{"$set": bson.M{
		"year":            s.Year,
		"month":           s.Month,
		"day":             s.Day,
		"start_time":      s.StartTime,
		"end_time":        s.EndTime,
		"available_slots": s.AvailableSlots,
		"updated_at":      s.UpdatedAt,
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return database.WrapWriteError("update schedule", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("schedule %s: %w", s.ID, database.ErrNotUpdated)
	}
	return nil
}

func (r *MongoScheduleRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("error deleting schedule %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("schedule %s: %w", id, database.ErrNotFound)
	}
	return nil
}

func (r *MongoScheduleRepo) RemoveSlot(ctx context.Context, id, label string) (*models.Schedule, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"id": id, "available_slots": label}
	update := bson.M{
		"$pull": bson.M{"available_slots": label},
		"$set":  bson.M{"updated_at": r.now().UTC().Truncate(time.Millisecond)},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var s models.Schedule
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("slot %s on schedule %s: %w", label, id, database.ErrNotFound)
		}
		return nil, fmt.Errorf("error removing slot %s: %w", label, err)
	}
	return &s, nil
}

func (r *MongoScheduleRepo) UpdateAfterBooking(ctx context.Context, scheduleID, bookingID, startTime string, durationMinutes float64) (*models.Schedule, error) {
	s, err := r.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	startHour, err := slots.ParseHour(startTime)
	if err != nil {
		return nil, fmt.Errorf("booking start %q: %w", startTime, err)
	}
	fits, err := slots.Covers(s.AvailableSlots, startTime, durationMinutes)
	if err != nil {
		return nil, err
	}
	if !fits {
		return nil, fmt.Errorf("schedule %s at %s: %w", scheduleID, startTime, database.ErrScheduleNotUpdated)
	}

	remaining := slots.ConsumeSlots(s.AvailableSlots, startHour, durationMinutes)
	removed := slots.Difference(s.AvailableSlots, remaining)
	now := r.now().UTC().Truncate(time.Millisecond)

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	// Matching on every removed label turns a concurrent claim into zero matches.
	filter := bson.M{"id": scheduleID, "available_slots": bson.M{"$all": removed}}
	update := bson.M{
		"$set":  bson.M{"available_slots": remaining, "updated_at": now},
		"$push": bson.M{"bookings": bookingID},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("error updating schedule %s after booking: %w", scheduleID, err)
	}
	if res.MatchedCount == 0 {
		return nil, fmt.Errorf("schedule %s: %w", scheduleID, database.ErrScheduleNotUpdated)
	}

	s.AvailableSlots = remaining
	s.Bookings = append(s.Bookings, bookingID)
	s.UpdatedAt = now
	return s, nil
}
