// Command admintoken mints an admin bearer token signed with ADMIN_JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/m1chalz/AI-First-sub005/internal/auth"
)

func main() {
	subject := flag.String("subject", "admin", "token subject (operator name)")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()

	secret := os.Getenv("ADMIN_JWT_SECRET")
	if secret == "" {
		log.Fatal("ADMIN_JWT_SECRET is required")
	}

	token, err := auth.NewJWTManager(secret, *ttl).GenerateAccessToken(*subject, auth.RoleAdmin)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}
	fmt.Println(token)
}
