package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/ecotrackhq/ecotrack-api/databases"
	"github.com/ecotrackhq/ecotrack-api/logging"
	"github.com/ecotrackhq/ecotrack-api/models"
)

// Scheduler runs the periodic report housekeeping jobs: the nightly recycle
// sweep and the weekly purge of recycled reports.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.SugaredLogger
	RDB  databases.ReportDatabase
}

// NewScheduler creates a new scheduler instance
func NewScheduler(rdb databases.ReportDatabase) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		log:  logging.New(),
		RDB:  rdb,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// sweep collector-pending reports into the recycled state nightly at 2 AM UTC
	_, err := s.cron.AddFunc("0 2 * * *", s.recyclePendingReports)
	if err != nil {
		s.log.Errorw("failed to register recycle sweep job", "error", err)
	}

	// purge recycled reports weekly, Sundays at 3 AM UTC
	_, err = s.cron.AddFunc("0 3 * * 0", s.purgeRecycledReports)
	if err != nil {
		s.log.Errorw("failed to register purge job", "error", err)
	}

	s.cron.Start()
	s.log.Info("Report housekeeping scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Report housekeeping scheduler stopped")
}

func (s *Scheduler) recyclePendingReports() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	now := primitive.NewDateTimeFromTime(time.Now())
	res, err := s.RDB.UpdateMany(ctx,
		bson.M{"wc_status": models.WCPending},
		bson.M{"$set": bson.M{"status": models.StatusRecycled, "wc_status": models.StatusRecycled, "updatedAt": now}},
	)
	if err != nil {
		s.log.Errorw("recycle sweep failed", "error", err)
		return
	}
	s.log.Infow("Recycle sweep complete",
		"matched", res.MatchedCount,
		"modified", res.ModifiedCount,
	)
}

func (s *Scheduler) purgeRecycledReports() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	res, err := s.RDB.DeleteMany(ctx, bson.M{"wc_status": models.StatusRecycled})
	if err != nil {
		s.log.Errorw("recycled report purge failed", "error", err)
		return
	}
	s.log.Infow("Recycled report purge complete", "deleted", res.DeletedCount)
}
