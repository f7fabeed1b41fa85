package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User holds the structure for the users collection in mongo. Points and
// Blacklisted are the reputation pair mutated by report verdicts: points must
// never go negative, and blacklisted tracks points reaching zero.
type User struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name             string             `bson:"name" json:"name"`
	Email            string             `bson:"email" json:"email"`
	PhoneNo          string             `bson:"phoneNo" json:"phoneNo"`
	Password         string             `bson:"password" json:"-"`
	IsAdmin          bool               `bson:"isAdmin" json:"isAdmin"`
	IsWasteCollector bool               `bson:"isWasteCollector" json:"isWasteCollector"`
	Points           int                `bson:"points" json:"points"`
	Blacklisted      bool               `bson:"blacklisted" json:"blacklisted"`
	Location         *GeoPoint          `bson:"location,omitempty" json:"location,omitempty"`
	CreatedAt        primitive.DateTime `bson:"createdAt" json:"createdAt"`
	UpdatedAt        primitive.DateTime `bson:"updatedAt" json:"updatedAt"`
}
