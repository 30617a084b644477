// Package models defines the domain aggregates of the exchange: companies and
// their users, buy/sell applications, deals, transport requests with logistics
// offers, chats, invoices, reviews, notifications and generated documents.
// The structs double as gorm schemas.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is a user's platform role. Lower values carry more privilege.
type Role int

const (
	RoleSuperAdmin   Role = 1
	RoleAdmin        Role = 2
	RoleManager      Role = 3
	RoleLogist       Role = 4
	RoleCompanyAdmin Role = 5
)

func (r Role) String() string {
	switch r {
	case RoleSuperAdmin:
		return "SUPER_ADMIN"
	case RoleAdmin:
		return "ADMIN"
	case RoleManager:
		return "MANAGER"
	case RoleLogist:
		return "LOGIST"
	case RoleCompanyAdmin:
		return "COMPANY_ADMIN"
	}
	return "UNKNOWN"
}

// Company is a trading party on the exchange.
type Company struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string        `gorm:"size:255;not null" json:"name"`
	INN         string        `gorm:"size:12;uniqueIndex" json:"inn"`
	Email       string        `gorm:"size:255" json:"email,omitempty"`
	Phone       string        `gorm:"size:32" json:"phone,omitempty"`
	Address     string        `gorm:"size:512" json:"address,omitempty"`
	CityID      *uuid.UUID    `gorm:"type:uuid" json:"city_id,omitempty"`
	Status      CompanyStatus `gorm:"size:16;not null;default:NOT_VERIFIED" json:"status"`
	Description string        `gorm:"size:3000" json:"description,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// AverageReviewRate is filled on read from the reviews table.
	AverageReviewRate float64 `gorm:"-" json:"average_review_rate"`
}

// IsTrusted reports whether applications of the company skip moderation.
func (c *Company) IsTrusted() bool {
	return c.Status == CompanyVerified || c.Status == CompanyReliable
}

// CompanyUpdate represents the fields that can be updated for a Company.
// Pointer types are used to allow partial updates.
type CompanyUpdate struct {
	ID          uuid.UUID  `json:"-"`
	Name        *string    `json:"name,omitempty"`
	Email       *string    `json:"email,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	Address     *string    `json:"address,omitempty"`
	CityID      *uuid.UUID `json:"city_id,omitempty"`
	Description *string    `json:"description,omitempty"`
}

// User is an employee of a company or of the platform itself.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Phone        string     `gorm:"size:32;uniqueIndex" json:"phone"`
	Email        string     `gorm:"size:255" json:"email,omitempty"`
	FirstName    string     `gorm:"size:128" json:"first_name,omitempty"`
	LastName     string     `gorm:"size:128" json:"last_name,omitempty"`
	PasswordHash string     `gorm:"size:255" json:"-"`
	Role         Role       `gorm:"not null;default:5" json:"role"`
	CompanyID    *uuid.UUID `gorm:"type:uuid;index" json:"company_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Favorite marks a company followed by a user.
type Favorite struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_favorite_user_company" json:"user_id"`
	CompanyID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_favorite_user_company;index" json:"company_id"`
	CreatedAt time.Time `json:"created_at"`
}

// City caches geocoded coordinates once resolved.
type City struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:255;uniqueIndex" json:"name"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *City) Resolved() bool {
	return c.Latitude != nil && c.Longitude != nil
}

// VerificationRequest asks platform staff to verify a company.
type VerificationRequest struct {
	ID         uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID  uuid.UUID          `gorm:"type:uuid;index;not null" json:"company_id"`
	EmployeeID uuid.UUID          `gorm:"type:uuid" json:"employee_id"`
	Comment    string             `gorm:"size:3000" json:"comment,omitempty"`
	Status     VerificationStatus `gorm:"size:16;not null;default:NEW" json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID    uuid.UUID
	CompanyID uuid.UUID
	Role      Role
}

// IsStaff reports platform-side roles allowed to act on any company's data.
func (a Actor) IsStaff() bool {
	return a.Role == RoleSuperAdmin || a.Role == RoleAdmin || a.Role == RoleManager
}

func (a Actor) IsLogist() bool {
	return a.Role == RoleLogist
}

// BelongsTo reports whether the actor works for the given company.
func (a Actor) BelongsTo(companyID uuid.UUID) bool {
	return a.CompanyID != uuid.Nil && a.CompanyID == companyID
}
