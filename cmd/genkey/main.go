package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"modelrouter/internal/auth"
	"modelrouter/internal/utils"
)

// genkey produces credentials for the router's static configuration: an API
// key entry ready to paste into api_keys.yaml, or a bcrypt hash for
// ADMIN_PASSWORD_HASH.
func main() {
	name := flag.String("name", "default", "display name for the generated API key")
	password := flag.String("password", "", "hash an admin password instead of generating an API key")
	flag.Parse()

	if *password != "" {
		hash, err := auth.HashPassword(*password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: failed to hash password: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Set this as ADMIN_PASSWORD_HASH:")
		fmt.Println(hash)
		return
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: failed to generate key material: %v\n", err)
		os.Exit(1)
	}
	plaintext := "rk-" + hex.EncodeToString(raw)

	fmt.Println("Give this key to the client (it is not stored anywhere):")
	fmt.Println(plaintext)
	fmt.Println()
	fmt.Println("Add this entry to api_keys.yaml:")
	fmt.Printf("  - id: %s\n", uuid.New().String())
	fmt.Printf("    name: %s\n", *name)
	fmt.Printf("    key_hash: %s\n", utils.HashString(plaintext))
}
