package session

import "github.com/golang-jwt/jwt/v5"

// Claims carried by a portal session token.
type Claims struct {
	Role        string `json:"role"`
	Name        string `json:"name"`
	Identifier  string `json:"identifier"`
	Version     int64  `json:"v"`
	jwt.RegisteredClaims
}

// Subject is the minimal account projection a token is issued for.
type Subject struct {
	ID          string
	Role        string
	DisplayName string
	Identifier  string
	Version     int64
}
