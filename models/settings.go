package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Settings is the single system settings document.
type Settings struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"_id,omitempty"`
	Notifications NotificationSettings `bson:"notifications" json:"notifications"`
	System        SystemSettings       `bson:"system" json:"system"`
	Thresholds    ThresholdSettings    `bson:"thresholds" json:"thresholds"`
	Security      SecuritySettings     `bson:"security" json:"security"`
	UpdatedAt     primitive.DateTime   `bson:"updatedAt" json:"updatedAt"`
}

// NotificationSettings toggles the alert channels.
type NotificationSettings struct {
	EmailAlerts       bool `bson:"emailAlerts" json:"emailAlerts"`
	SMSAlerts         bool `bson:"smsAlerts" json:"smsAlerts"`
	PushNotifications bool `bson:"pushNotifications" json:"pushNotifications"`
	CriticalAlerts    bool `bson:"criticalAlerts" json:"criticalAlerts"`
	WarningAlerts     bool `bson:"warningAlerts" json:"warningAlerts"`
	ReportAlerts      bool `bson:"reportAlerts" json:"reportAlerts"`
}

// SystemSettings holds operational limits.
type SystemSettings struct {
	AutoApproval      bool `bson:"autoApproval" json:"autoApproval"`
	MaxReportsPerUser int  `bson:"maxReportsPerUser" json:"maxReportsPerUser"`
	ReportExpiryDays  int  `bson:"reportExpiryDays" json:"reportExpiryDays"`
	MaintenanceMode   bool `bson:"maintenanceMode" json:"maintenanceMode"`
	DataRetentionDays int  `bson:"dataRetentionDays" json:"dataRetentionDays"`
}

// ThresholdSettings holds the capacity percentages that drive bin statuses
// and collection alerts.
type ThresholdSettings struct {
	CriticalCapacity        int `bson:"criticalCapacity" json:"criticalCapacity"`
	WarningCapacity         int `bson:"warningCapacity" json:"warningCapacity"`
	LowCapacity             int `bson:"lowCapacity" json:"lowCapacity"`
	AutoCollectionThreshold int `bson:"autoCollectionThreshold" json:"autoCollectionThreshold"`
}

// SecuritySettings holds session and login policy.
type SecuritySettings struct {
	RequireTwoFactor bool `bson:"requireTwoFactor" json:"requireTwoFactor"`
	SessionTimeout   int  `bson:"sessionTimeout" json:"sessionTimeout"`
	MaxLoginAttempts int  `bson:"maxLoginAttempts" json:"maxLoginAttempts"`
	PasswordExpiry   int  `bson:"passwordExpiry" json:"passwordExpiry"`
}

// DefaultSettings returns the settings document created when none exists yet.
func DefaultSettings() Settings {
	return Settings{
		Notifications: NotificationSettings{
			EmailAlerts:       true,
			PushNotifications: true,
			CriticalAlerts:    true,
			WarningAlerts:     true,
			ReportAlerts:      true,
		},
		System: SystemSettings{
			MaxReportsPerUser: 10,
			ReportExpiryDays:  30,
			DataRetentionDays: 365,
		},
		Thresholds: ThresholdSettings{
			CriticalCapacity:        85,
			WarningCapacity:         50,
			LowCapacity:             25,
			AutoCollectionThreshold: 90,
		},
		Security: SecuritySettings{
			SessionTimeout:   60,
			MaxLoginAttempts: 5,
			PasswordExpiry:   90,
		},
	}
}
