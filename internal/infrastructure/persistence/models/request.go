package models

import (
	"time"

	"github.com/hospital-erp/backend/internal/domain/request"
)

// InventoryRequestModel is the persistence model for inventory requests
type InventoryRequestModel struct {
	BaseModel
	ItemName          string `gorm:"type:varchar(200);not null"`
	Quantity          int    `gorm:"not null"`
	DepartmentID      int64  `gorm:"not null;index"`
	RequestedBy       string `gorm:"type:varchar(100);not null"`
	Status            string `gorm:"type:varchar(20);not null;index"`
	Notes             string `gorm:"type:text"`
	CheckedOutBy      string `gorm:"type:varchar(100)"`
	CheckoutMethod    string `gorm:"type:varchar(20)"`
	PurchaseRequestID *int64
}

// TableName returns the table name for GORM
func (InventoryRequestModel) TableName() string {
	return "inventory_requests"
}

// ToDomain converts the model to a domain inventory request
func (m *InventoryRequestModel) ToDomain() *request.InventoryRequest {
	return &request.InventoryRequest{
		BaseEntity:        m.BaseModel.ToDomain(),
		ItemName:          m.ItemName,
		Quantity:          m.Quantity,
		DepartmentID:      m.DepartmentID,
		RequestedBy:       m.RequestedBy,
		Status:            request.Status(m.Status),
		Notes:             m.Notes,
		CheckedOutBy:      m.CheckedOutBy,
		CheckoutMethod:    request.CheckoutMethod(m.CheckoutMethod),
		PurchaseRequestID: m.PurchaseRequestID,
	}
}

// InventoryRequestModelFromDomain converts a domain inventory request
func InventoryRequestModelFromDomain(r *request.InventoryRequest) *InventoryRequestModel {
	m := &InventoryRequestModel{
		ItemName:          r.ItemName,
		Quantity:          r.Quantity,
		DepartmentID:      r.DepartmentID,
		RequestedBy:       r.RequestedBy,
		Status:            string(r.Status),
		Notes:             r.Notes,
		CheckedOutBy:      r.CheckedOutBy,
		CheckoutMethod:    string(r.CheckoutMethod),
		PurchaseRequestID: r.PurchaseRequestID,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}

// PurchaseRequestModel is the persistence model for purchase requests
type PurchaseRequestModel struct {
	BaseModel
	ItemName        string    `gorm:"type:varchar(200);not null"`
	Quantity        int       `gorm:"not null"`
	DeadlineDate    time.Time `gorm:"not null"`
	DepartmentID    int64     `gorm:"not null;index"`
	Status          string    `gorm:"type:varchar(20);not null;index"`
	SourceRequestID *int64    `gorm:"uniqueIndex"`
}

// TableName returns the table name for GORM
func (PurchaseRequestModel) TableName() string {
	return "purchase_requests"
}

// ToDomain converts the model to a domain purchase request
func (m *PurchaseRequestModel) ToDomain() *request.PurchaseRequest {
	return &request.PurchaseRequest{
		BaseEntity:      m.BaseModel.ToDomain(),
		ItemName:        m.ItemName,
		Quantity:        m.Quantity,
		DeadlineDate:    m.DeadlineDate,
		DepartmentID:    m.DepartmentID,
		Status:          request.PurchaseStatus(m.Status),
		SourceRequestID: m.SourceRequestID,
	}
}

// PurchaseRequestModelFromDomain converts a domain purchase request
func PurchaseRequestModelFromDomain(p *request.PurchaseRequest) *PurchaseRequestModel {
	m := &PurchaseRequestModel{
		ItemName:        p.ItemName,
		Quantity:        p.Quantity,
		DeadlineDate:    p.DeadlineDate,
		DepartmentID:    p.DepartmentID,
		Status:          string(p.Status),
		SourceRequestID: p.SourceRequestID,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}
