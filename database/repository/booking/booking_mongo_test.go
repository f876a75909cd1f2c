package bookingRepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"appointly/database"
	"appointly/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func toDoc(t *testing.T, v interface{}) bson.D {
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var d bson.D
	require.NoError(t, bson.Unmarshal(raw, &d))
	return d
}

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func sampleBooking(id string) models.Booking {
	return models.Booking{
		ID:         id,
		Name:       "Ada",
		Phone:      "+15550100",
		Email:      "ada@example.com",
		StartTime:  "10:00am",
		ScheduleID: "sched-1",
		Service:    models.ServiceInfo{Title: "Cut", Price: 30, Duration: 60},
		Status:     models.StatusUpcoming,
		CreatedAt:  time.Date(2030, 3, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2030, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestBuildFilter(t *testing.T) {
	from := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	f := buildFilter(models.BookingFilter{Status: models.StatusMissed, CreatedFrom: from})
	assert.Equal(t, models.StatusMissed, f["status"])
	assert.Equal(t, bson.M{"$gte": from}, f["created_at"])
	assert.NotContains(t, f, "schedule_id")

	f = buildFilter(models.BookingFilter{AppointmentFrom: from})
	assert.Equal(t, bson.M{"$in": []string{}}, f["schedule_id"])

	f = buildFilter(models.BookingFilter{ScheduleIDs: []string{"a", "b"}})
	assert.Equal(t, bson.M{"$in": []string{"a", "b"}}, f["schedule_id"])
}

func TestMongoBookingRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("insert duplicate slot claim", func(mt *mtest.T) {
		repo := NewMongoBookingRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "E11000 duplicate key error collection: bookings index: booking_slot_unique",
		}))

		b := sampleBooking("b1")
		err := repo.Insert(ctx, &b)
		assert.True(t, errors.Is(err, database.ErrDuplicate))
	})

	mt.Run("get by id", func(mt *mtest.T) {
		repo := NewMongoBookingRepo(mt.Coll)
		b := sampleBooking("b1")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, toDoc(t, b)))

		got, err := repo.GetByID(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, models.StatusUpcoming, got.Status)
		assert.Equal(t, 60.0, got.Service.Duration)
	})

	mt.Run("list returns page and total", func(mt *mtest.T) {
		repo := NewMongoBookingRepo(mt.Coll)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{{Key: "n", Value: int32(12)}}),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
				toDoc(t, sampleBooking("b1")), toDoc(t, sampleBooking("b2"))),
		)

		items, total, err := repo.List(ctx, models.BookingFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(12), total)
		assert.Len(t, items, 2)
	})

	mt.Run("status change loses to concurrent writer", func(mt *mtest.T) {
		repo := NewMongoBookingRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		st := models.StatusCompleted
		err := repo.ApplyStatusChange(ctx, "b1", models.StatusUpcoming, StatusChange{Status: &st, UpdatedAt: time.Now()})
		assert.True(t, errors.Is(err, database.ErrNotUpdated))
	})

	mt.Run("count missed", func(mt *mtest.T) {
		repo := NewMongoBookingRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{{Key: "n", Value: int32(2)}}))

		n, err := repo.CountMissed(ctx, "Ada", "ada@example.com", "+15550100")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	mt.Run("count by status", func(mt *mtest.T) {
		repo := NewMongoBookingRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "Upcoming"}, {Key: "count", Value: int32(3)}},
			bson.D{{Key: "_id", Value: "Missed"}, {Key: "count", Value: int32(1)}},
		))

		got, err := repo.CountByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), got[models.StatusUpcoming])
		assert.Equal(t, int64(1), got[models.StatusMissed])
	})

	mt.Run("daily income", func(mt *mtest.T) {
		repo := NewMongoBookingRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "2030-03-01"}, {Key: "total", Value: 80.0}, {Key: "count", Value: int32(2)}},
		))

		from := time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC)
		got, err := repo.DailyIncome(ctx, from, from.Add(24*time.Hour))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "2030-03-01", got[0].Date)
		assert.Equal(t, 80.0, got[0].Total)
		assert.Equal(t, int64(2), got[0].Count)
	})
}
