package httpapi

import (
	"time"

	"github.com/dmitrijs2005/booktag/internal/server/models"
)

type CreateCodeRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

type ProvisionBatchRequest struct {
	Prefix string `json:"prefix" validate:"max=54"`
	Count  int    `json:"count" validate:"required,min=1,max=1000"`
}

type OwnerRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email,max=100"`
}

type ValidateCodeRequest struct {
	Code string `json:"code" validate:"required,vcode"`
}

// QRCodeResponse is the admin view of a record, owner included.
type QRCodeResponse struct {
	ID           string     `json:"id"`
	Code         string     `json:"code"`
	IsRegistered bool       `json:"is_registered"`
	OwnerName    *string    `json:"owner_name,omitempty"`
	OwnerEmail   *string    `json:"owner_email,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	RegisteredAt *time.Time `json:"registered_at,omitempty"`
}

// PublicQRCodeResponse is what a scanner of the printed code may see.
type PublicQRCodeResponse struct {
	Code         string `json:"code"`
	IsRegistered bool   `json:"is_registered"`
}

type UserResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

type VerificationCodeResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

type ManifestResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func toQRCodeResponse(q *models.QRCode) QRCodeResponse {
	return QRCodeResponse{
		ID:           q.ID,
		Code:         q.Code,
		IsRegistered: q.IsRegistered(),
		OwnerName:    q.OwnerName,
		OwnerEmail:   q.OwnerEmail,
		CreatedAt:    q.CreatedAt,
		RegisteredAt: q.RegisteredAt,
	}
}

func toQRCodeResponses(list []*models.QRCode) []QRCodeResponse {
	out := make([]QRCodeResponse, 0, len(list))
	for _, q := range list {
		out = append(out, toQRCodeResponse(q))
	}
	return out
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}
