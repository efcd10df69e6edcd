package entity

import (
	"database/sql/driver"
	"time"

	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/ident"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/jsonb"
)

// Order statuses
const (
	StatusPending      = "Pending"
	StatusInProduction = "In Production"
	StatusQualityCheck = "Quality Check"
	StatusShipped      = "Shipped"
	StatusCompleted    = "Completed"
)

// Statuses in lifecycle order
var Statuses = []string{StatusPending, StatusInProduction, StatusQualityCheck, StatusShipped, StatusCompleted}

// Task statuses
const (
	TaskToDo       = "TO DO"
	TaskInProgress = "IN PROGRESS"
	TaskComplete   = "COMPLETE"
)

// Document sources
const (
	SourceClient  = "client"
	SourceCompany = "company"
)

// DateLayout of every date field in the order document
const DateLayout = "2006-01-02"

// Order production work order
type Order struct {
	ID        string `json:"id" gorm:"primaryKey;size:32"`
	ClientID  string `json:"client_id" gorm:"size:64;not null;index"`
	QuoteID   string `json:"quote_id,omitempty" gorm:"size:32;index"`
	OrderName string `json:"order_name" gorm:"size:200"`
	Status    string `json:"status" gorm:"size:20;not null;default:Pending"`

	// factory_id and custom_factory_* are mutually exclusive
	FactoryID             string `json:"factory_id,omitempty" gorm:"size:64"`
	CustomFactoryName     string `json:"custom_factory_name,omitempty" gorm:"size:200"`
	CustomFactoryLocation string `json:"custom_factory_location,omitempty" gorm:"size:200"`

	Products  Products  `json:"products" gorm:"type:jsonb"`
	Tasks     Tasks     `json:"tasks" gorm:"type:jsonb"`
	Documents Documents `json:"documents" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// Product one garment line of the order
type Product struct {
	ID       ident.ID `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category,omitempty"`
	Status   string   `json:"status"`
}

// Task production plan entry. ProductID "" means unassigned.
type Task struct {
	ID               ident.ID `json:"id"`
	Name             string   `json:"name"`
	Status           string   `json:"status"`
	Priority         string   `json:"priority"`
	Responsible      string   `json:"responsible"`
	PlannedStartDate string   `json:"plannedStartDate"`
	PlannedEndDate   string   `json:"plannedEndDate"`
	ActualStartDate  string   `json:"actualStartDate"`
	ActualEndDate    string   `json:"actualEndDate"`
	Notes            string   `json:"notes"`
	Progress         int      `json:"progress"`
	ProductID        ident.ID `json:"productId"`
}

// Document file attached to the order
type Document struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	LastUpdated string `json:"lastUpdated"`
	Path        string `json:"path"`
	Source      string `json:"source"`
}

type Products []Product

func (p Products) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return jsonb.Value([]Product(p))
}

func (p *Products) Scan(value interface{}) error {
	return jsonb.Scan(value, (*[]Product)(p))
}

type Tasks []Task

func (t Tasks) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	return jsonb.Value([]Task(t))
}

func (t *Tasks) Scan(value interface{}) error {
	return jsonb.Scan(value, (*[]Task)(t))
}

type Documents []Document

func (d Documents) Value() (driver.Value, error) {
	if d == nil {
		return "[]", nil
	}
	return jsonb.Value([]Document(d))
}

func (d *Documents) Scan(value interface{}) error {
	return jsonb.Scan(value, (*[]Document)(d))
}

// Clone deep-copies the nested documents.
func (o Order) Clone() Order {
	c := o
	if o.Products != nil {
		c.Products = append(Products(make([]Product, 0, len(o.Products))), o.Products...)
	}
	if o.Tasks != nil {
		c.Tasks = append(Tasks(make([]Task, 0, len(o.Tasks))), o.Tasks...)
	}
	if o.Documents != nil {
		c.Documents = append(Documents(make([]Document, 0, len(o.Documents))), o.Documents...)
	}
	return c
}

// IsValidStatus reports whether s is an order status.
func IsValidStatus(s string) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsValidTaskStatus reports whether s is a task status.
func IsValidTaskStatus(s string) bool {
	return s == TaskToDo || s == TaskInProgress || s == TaskComplete
}
