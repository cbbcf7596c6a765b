package main

import (
	"fmt"
	"log"

	"github.com/boomchecker/moderation-gateway/internal/crypto"
)

func main() {
	fmt.Println("Moderation Gateway - Admin Token Generator")
	fmt.Println("==========================================")
	fmt.Println()

	token, err := crypto.GenerateToken()
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	fmt.Println("Successfully generated admin token!")
	fmt.Println()
	fmt.Println("Add this to your .env file:")
	fmt.Println("----------------------------")
	fmt.Printf("ADMIN_TOKEN=%s\n", token)
	fmt.Println()
	fmt.Println("SECURITY WARNING:")
	fmt.Println("   - Keep this token SECRET and SECURE")
	fmt.Println("   - Never commit this token to version control")
	fmt.Println("   - Anyone holding it can issue and revoke tokens")
	fmt.Println()
	fmt.Printf("Fingerprint (safe to log): %s\n", crypto.Fingerprint(token))
}
