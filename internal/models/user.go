package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Role names a capability a user account holds.
const (
	RoleUser     = "user"
	RoleSeller   = "seller"
	RoleInvestor = "investor"
)

// User represents a registered account.
type User struct {
	ID                  uuid.UUID            `json:"id"`
	Name                string               `json:"name"`
	Email               string               `json:"email"`
	PasswordHash        string               `json:"-"`
	Roles               []string             `json:"roles"`
	SellerApplication   *SellerApplication   `json:"seller_application,omitempty"`
	InvestorApplication *InvestorApplication `json:"investor_application,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// SellerApplication holds the details submitted when applying as a seller.
type SellerApplication struct {
	BusinessName       string `json:"business_name"`
	CompanyType        string `json:"company_type"`
	Province           string `json:"province"`
	City               string `json:"city"`
	FarmLocation       string `json:"farm_location"`
	ContactNumber      string `json:"contact_number"`
	SupportingDocument string `json:"supporting_document"`
}

// InvestorApplication holds the details submitted when applying as an investor.
type InvestorApplication struct {
	InvestmentType     string `json:"investment_type"`
	CompanyName        string `json:"company_name,omitempty"`
	Industry           string `json:"industry,omitempty"`
	ContactNumber      string `json:"contact_number"`
	SupportingDocument string `json:"supporting_document"`
}

// UserSummary is the minimal user information embedded in API responses.
type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Location string    `json:"location,omitempty"`
}
