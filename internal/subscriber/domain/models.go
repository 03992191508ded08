package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

var Statuses = []Status{StatusActive, StatusInactive, StatusSuspended}

// ParseStatus reports the canonical status for raw, case-insensitively.
func ParseStatus(raw string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusActive:
		return StatusActive, true
	case StatusInactive:
		return StatusInactive, true
	case StatusSuspended:
		return StatusSuspended, true
	}
	return "", false
}

type Subscriber struct {
	ID              snowflake.ID    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	SubscriberCode  string          `gorm:"column:subscriber_code;index" json:"subscriber_code,omitempty"`
	Name            string          `gorm:"not null" json:"name"`
	Phone           string          `gorm:"not null;size:10" json:"phone"`
	Area            string          `gorm:"not null;index" json:"area"`
	Address         string          `json:"address"`
	ServiceProvider string          `gorm:"column:service_provider;not null" json:"service_provider"`
	MonthlyFee      float64         `gorm:"column:monthly_fee;not null;default:0" json:"monthly_fee"`
	ConnectionDate  *datatypes.Date `gorm:"column:connection_date" json:"connection_date,omitempty"`
	Status          Status          `gorm:"not null;default:active" json:"status"`
	CreatedBy       string          `gorm:"column:created_by" json:"created_by,omitempty"`
	LastEditedBy    string          `gorm:"column:last_edited_by" json:"last_edited_by,omitempty"`
	LastEditedAt    *time.Time      `gorm:"column:last_edited_at" json:"last_edited_at,omitempty"`
	CreatedAt       time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updated_at"`
}

func (Subscriber) TableName() string { return "subscribers" }

// ConnectionDateString renders the connection date as YYYY-MM-DD, or "".
func (s Subscriber) ConnectionDateString() string {
	if s.ConnectionDate == nil {
		return ""
	}
	return time.Time(*s.ConnectionDate).Format(DateLayout)
}

const DateLayout = "2006-01-02"

// FormInput is the raw, untrusted shape of a create or update submission.
// Every field is a string so that missing and malformed values can be told
// apart from zero values.
type FormInput struct {
	SubscriberCode  string `json:"subscriber_code" form:"subscriber_code"`
	Name            string `json:"name" form:"name"`
	Phone           string `json:"phone" form:"phone"`
	Area            string `json:"area" form:"area"`
	Address         string `json:"address" form:"address"`
	ServiceProvider string `json:"service_provider" form:"service_provider"`
	MonthlyFee      string `json:"monthly_fee" form:"monthly_fee"`
	ConnectionDate  string `json:"connection_date" form:"connection_date"`
	Status          string `json:"status" form:"status"`
}

// Normalized is a FormInput that passed validation.
type Normalized struct {
	SubscriberCode  string
	Name            string
	Phone           string
	Area            string
	Address         string
	ServiceProvider string
	MonthlyFee      float64
	ConnectionDate  *time.Time
	Status          Status
}

// Apply copies the normalized fields onto s, leaving identity and audit
// fields untouched.
func (n Normalized) Apply(s *Subscriber) {
	s.SubscriberCode = n.SubscriberCode
	s.Name = n.Name
	s.Phone = n.Phone
	s.Area = n.Area
	s.Address = n.Address
	s.ServiceProvider = n.ServiceProvider
	s.MonthlyFee = n.MonthlyFee
	s.Status = n.Status
	s.ConnectionDate = nil
	if n.ConnectionDate != nil {
		d := datatypes.Date(*n.ConnectionDate)
		s.ConnectionDate = &d
	}
}
