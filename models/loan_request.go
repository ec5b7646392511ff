// models/loan_request.go
package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	LoanRequestTable = "elt_loan_requests"
	LoanItemTable    = "elt_loan_items"
)

type LoanStatus string

const (
	StatusPending   LoanStatus = "pending"
	StatusApproved  LoanStatus = "approved"
	StatusRejected  LoanStatus = "rejected"
	StatusCancelled LoanStatus = "cancelled"
	StatusReturned  LoanStatus = "returned"
)

func (s LoanStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusReturned:
		return true
	}
	return false
}

type LoanRequest struct {
	ID             string     `gorm:"size:36;primaryKey" json:"id"`
	CreatedByUID   string     `gorm:"size:128;index;not null" json:"createdByUid"`
	CreatedByEmail string     `gorm:"size:255" json:"createdByEmail"`
	Status         LoanStatus `gorm:"size:20;index;not null;default:'pending'" json:"status"`
	Items          []LoanItem `gorm:"foreignKey:LoanRequestID;constraint:OnDelete:CASCADE" json:"items"`

	Reason             string     `gorm:"type:text" json:"reason"`
	ExpectedReturnDate *time.Time `json:"expectedReturnDate,omitempty"`

	// Opaque document metadata, carried through untouched.
	AcademicYearCode string `gorm:"size:32;index" json:"academicYearCode"`
	RequestDate      string `gorm:"size:10" json:"requestDate"`
	DepartmentCode   string `gorm:"size:64;index" json:"departmentCode"`

	ApprovedByUID *string    `gorm:"size:128" json:"approvedByUid,omitempty"`
	ApprovedAt    *time.Time `json:"approvedAt,omitempty"`
	CancelledAt   *time.Time `json:"cancelledAt,omitempty"`
	ReturnedByUID *string    `gorm:"size:128" json:"returnedByUid,omitempty"`
	ReturnedAt    *time.Time `json:"returnedAt,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LoanItem keeps a snapshot of the equipment's descriptive fields taken at
// submission time. Later equipment edits are not propagated here.
type LoanItem struct {
	ID            uint   `gorm:"primaryKey" json:"-"`
	LoanRequestID string `gorm:"size:36;index;not null" json:"-"`
	Position      int    `gorm:"not null" json:"-"`
	EquipmentID   string `gorm:"size:36;index;not null" json:"equipmentId"`
	EquipmentName string `gorm:"size:200" json:"equipmentName"`
	Code          string `gorm:"size:120" json:"code"`
	Unit          string `gorm:"size:40" json:"unit"`
	Quantity      int    `gorm:"not null;check:quantity > 0" json:"quantity"`
}

func (LoanRequest) TableName() string { return LoanRequestTable }
func (LoanItem) TableName() string    { return LoanItemTable }

var ErrInvalidDemand = errors.New("line item quantity is not positive or the equipment total overflows")

// Demand sums quantities per equipment id. The returned ids are ordered by
// first appearance in Items. A non-positive line or a total past math.MaxInt
// yields ErrInvalidDemand.
func (r *LoanRequest) Demand() (ids []string, qty map[string]int, err error) {
	qty = make(map[string]int, len(r.Items))
	for _, it := range r.Items {
		if it.Quantity <= 0 {
			return nil, nil, fmt.Errorf("%w: quantity %d for %s", ErrInvalidDemand, it.Quantity, it.EquipmentID)
		}
		cur, seen := qty[it.EquipmentID]
		if !seen {
			ids = append(ids, it.EquipmentID)
		}
		if cur > math.MaxInt-it.Quantity {
			return nil, nil, fmt.Errorf("%w: total for %s", ErrInvalidDemand, it.EquipmentID)
		}
		qty[it.EquipmentID] = cur + it.Quantity
	}
	return ids, qty, nil
}
