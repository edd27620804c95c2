package internal

// SupportedVersion is bound into the AAD of every sealed payload.
const SupportedVersion = "v1"

// Envelope is the JSON form of a sealed chat payload.
type Envelope struct {
	Version    string `json:"version"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}
