package databases

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureIndexes creates the indexes the hot query paths rely on: report
// lookups by author and status, bin filtering by ward/status, and user
// lookups by email and role flags. Failures are logged, not fatal; the
// collections still work without them.
func EnsureIndexes(ctx context.Context, db DatabaseHelper) {
	reportIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "admin_status", Value: 1}}},
		{Keys: bson.D{{Key: "wc_status", Value: 1}}},
		{Keys: bson.D{{Key: "bin", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "admin_status", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "createdAt", Value: -1}}},
	}

	binIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "ward", Value: 1}}},
		{Keys: bson.D{{Key: "zone", Value: 1}}},
		{Keys: bson.D{{Key: "binType", Value: 1}}},
		{Keys: bson.D{{Key: "realTimeCapacity", Value: -1}}},
	}

	userIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}},
		{Keys: bson.D{{Key: "phoneNo", Value: 1}}},
		{Keys: bson.D{{Key: "isAdmin", Value: 1}}},
		{Keys: bson.D{{Key: "isWasteCollector", Value: 1}}},
		{Keys: bson.D{{Key: "blacklisted", Value: 1}}},
	}

	for coll, indexes := range map[string][]mongo.IndexModel{
		reportName:   reportIndexes,
		wasteBinName: binIndexes,
		userName:     userIndexes,
	} {
		if _, err := db.Collection(coll).CreateIndexes(ctx, indexes); err != nil {
			zap.S().Warnw("failed to create indexes", "collection", coll, "error", err)
		}
	}
}
