package entity

// Account is a registered user. Only a hash of the issued token is kept.
type Account struct {
	Username  string `json:"username"`
	TokenHash string `json:"token_hash"`
}
