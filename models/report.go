package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Report condition statuses as stored in mongo. The frontend submits these
// exact strings, spaces included.
const (
	ConditionFull             = "full"
	ConditionDamaged          = "damaged"
	ConditionNeedsMaintenance = "needs maintenance"
	ConditionPartiallyFilled  = "partially filled"
	ConditionOverflowing      = "overflowing"

	// StatusRecycled is a terminal marker written by the bulk sweep to both
	// the condition status and the collector status. It is never accepted
	// from a client.
	StatusRecycled = "recycled"
)

// Admin verdict values for a report.
const (
	AdminPending  = "pending"
	AdminApproved = "approved"
	AdminRejected = "rejected"
)

// Waste collector statuses for a report.
const (
	WCPending = "pending"
	WCDone    = "done"
)

// Urgency levels for a report.
const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

// ValidCondition reports whether s is one of the five submittable condition
// statuses.
func ValidCondition(s string) bool {
	switch s {
	case ConditionFull, ConditionDamaged, ConditionNeedsMaintenance, ConditionPartiallyFilled, ConditionOverflowing:
		return true
	}
	return false
}

// ValidUrgency reports whether s is a known urgency level.
func ValidUrgency(s string) bool {
	switch s {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}

// GeoPoint is a latitude/longitude pair supplied with a report, independent
// of the bin's own location.
type GeoPoint struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// Attachment holds the report photo. The raw bytes live in mongo unless the
// upload was offloaded to cloudinary, in which case only the URL is kept.
type Attachment struct {
	Data        []byte `bson:"data,omitempty" json:"-"`
	ContentType string `bson:"contentType" json:"contentType"`
	URL         string `bson:"url,omitempty" json:"url,omitempty"`
}

// Report holds the structure for the userreports collection in mongo
type Report struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	BinID       primitive.ObjectID `bson:"bin" json:"bin"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	Status      string             `bson:"status" json:"status"`
	AdminStatus string             `bson:"admin_status" json:"admin_status"`
	WCStatus    string             `bson:"wc_status" json:"wc_status"`
	Description string             `bson:"description" json:"description"`
	Urgency     string             `bson:"urgency" json:"urgency"`
	Location    *GeoPoint          `bson:"location,omitempty" json:"location,omitempty"`
	Attachment  Attachment         `bson:"attachment" json:"attachment"`
	CreatedAt   primitive.DateTime `bson:"createdAt" json:"createdAt"`
	UpdatedAt   primitive.DateTime `bson:"updatedAt" json:"updatedAt"`
}

// PopulatedReport is a report with its author and bin identity resolved for
// display purposes.
type PopulatedReport struct {
	Report
	User *ReportAuthor `json:"user,omitempty"`
	Bin  *ReportBin    `json:"binDetails,omitempty"`
}

// ReportAuthor is the subset of the author shown alongside a report.
type ReportAuthor struct {
	ID    primitive.ObjectID `json:"_id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
}

// ReportBin is the subset of the bin shown alongside a report.
type ReportBin struct {
	ID      primitive.ObjectID `json:"_id"`
	Ward    string             `json:"ward"`
	Zone    string             `json:"zone"`
	BinType string             `json:"binType"`
}

// ReportStats is the per-user dashboard aggregation result.
type ReportStats struct {
	TotalReports    int     `bson:"totalReports" json:"totalReports"`
	ApprovedReports int     `bson:"approvedReports" json:"approvedReports"`
	PendingReports  int     `bson:"pendingReports" json:"pendingReports"`
	RejectedReports int     `bson:"rejectedReports" json:"rejectedReports"`
	UniqueLocations int     `bson:"uniqueLocations" json:"uniqueLocations"`
	CO2Saved        float64 `json:"co2Saved"`
	WasteDiverted   float64 `json:"wasteDiverted"`
	EnergySaved     float64 `json:"energySaved"`
	TreesEquivalent int     `json:"treesEquivalent"`
}
