package models

import "time"

// NonceRequest asks for a sign-in challenge for a wallet.
// @Description Sign-in challenge request
type NonceRequest struct {
	Address string `json:"address" binding:"required" example:"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"`
}

// NonceResponse is the challenge the wallet must sign with personal_sign.
// @Description Sign-in challenge
type NonceResponse struct {
	Nonce     string    `json:"nonce" example:"b4c1f0f4d3a94c6aa1f9c1f2b8e0d9a7"`
	Message   string    `json:"message"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// VerifyRequest carries the signed challenge.
// @Description Signed sign-in challenge
type VerifyRequest struct {
	Address   string `json:"address" binding:"required" example:"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"`
	Nonce     string `json:"nonce" binding:"required"`
	Signature string `json:"signature" binding:"required" example:"0x..."`
}

// NonceRecord is what the server remembers about an issued challenge.
type NonceRecord struct {
	Address  string    `json:"address"`
	Message  string    `json:"message"`
	IssuedAt time.Time `json:"issued_at"`
}

// Session binds a bearer token to a verified wallet.
// @Description Wallet session
type Session struct {
	Token     string    `json:"token"`
	Address   string    `json:"address" example:"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
