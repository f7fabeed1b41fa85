package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Bin statuses derived from fill capacity.
const (
	BinEmpty           = "empty"
	BinPartiallyFilled = "partially_filled"
	BinFilled          = "filled"
	BinMaintenance     = "maintenance"
)

// WasteBin holds the structure for the wastebins collection in mongo
type WasteBin struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Ward             string             `bson:"ward" json:"ward"`
	Zone             string             `bson:"zone" json:"zone"`
	Category         string             `bson:"category" json:"category"`
	BinType          string             `bson:"binType" json:"binType"`
	Status           string             `bson:"status" json:"status"`
	RealTimeCapacity float64            `bson:"realTimeCapacity" json:"realTimeCapacity"`
	TotalCapacity    float64            `bson:"totalCapacity" json:"totalCapacity"`
	SensorEnabled    bool               `bson:"sensorEnabled" json:"sensorEnabled"`
	Location         *GeoPoint          `bson:"location,omitempty" json:"location,omitempty"`
	CreatedAt        primitive.DateTime `bson:"createdAt" json:"createdAt"`
	UpdatedAt        primitive.DateTime `bson:"updatedAt" json:"updatedAt"`
}

// StatusForCapacity derives the bin status from a fill percentage. Bins in
// maintenance keep that status regardless of capacity.
func StatusForCapacity(percent float64) string {
	switch {
	case percent >= 75:
		return BinFilled
	case percent >= 25:
		return BinPartiallyFilled
	default:
		return BinEmpty
	}
}
