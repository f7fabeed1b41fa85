package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ecotrackhq/ecotrack-api/databases/mocks"
	"github.com/ecotrackhq/ecotrack-api/models"
)

func TestRecyclePendingReportsJob(t *testing.T) {
	rdb := new(mocks.ReportDatabase)
	s := NewScheduler(rdb)

	rdb.On("UpdateMany", mock.Anything, mock.MatchedBy(func(f interface{}) bool {
		return f.(bson.M)["wc_status"] == models.WCPending
	}), mock.MatchedBy(func(u interface{}) bool {
		set := u.(bson.M)["$set"].(bson.M)
		return set["status"] == models.StatusRecycled && set["wc_status"] == models.StatusRecycled
	})).Return(&mongo.UpdateResult{MatchedCount: 2, ModifiedCount: 2}, nil)

	s.recyclePendingReports()
	rdb.AssertExpectations(t)
}

func TestPurgeRecycledReportsJob(t *testing.T) {
	rdb := new(mocks.ReportDatabase)
	s := NewScheduler(rdb)

	rdb.On("DeleteMany", mock.Anything, mock.MatchedBy(func(f interface{}) bool {
		return f.(bson.M)["wc_status"] == models.StatusRecycled
	})).Return(&mongo.DeleteResult{DeletedCount: 5}, nil)

	s.purgeRecycledReports()
	rdb.AssertExpectations(t)
}

func TestSchedulerStartStop(t *testing.T) {
	rdb := new(mocks.ReportDatabase)
	s := NewScheduler(rdb)

	s.Start()
	assert.NotNil(t, s.cron)
	s.Stop()
}
