package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/certiva/certiva-backend/internal/config"
	"github.com/certiva/certiva-backend/internal/service"
)

// mktoken mints a development JWT for a given subject and role, so the
// API can be exercised with curl before any identity provider is wired.
func main() {
	var (
		subject string
		role    string
	)
	flag.StringVar(&subject, "subject", "", "Subject UUID (random if omitted)")
	flag.StringVar(&role, "role", "student", "Role: student, examiner or admin")
	flag.Parse()

	cfg := config.Load()

	sub := uuid.New()
	if subject != "" {
		parsed, err := uuid.Parse(subject)
		if err != nil {
			log.Fatalf("Invalid subject UUID: %v", err)
		}
		sub = parsed
	}

	r := service.Role(role)
	switch r {
	case service.RoleStudent, service.RoleExaminer, service.RoleAdmin:
	default:
		log.Fatalf("Unknown role %q (want student, examiner or admin)", role)
	}

	token, err := service.NewAuthService(cfg).GenerateToken(sub, r)
	if err != nil {
		log.Fatalf("Token generation failed: %v", err)
	}

	fmt.Printf("Subject: %s\nRole:    %s\n\n%s\n", sub, r, token)
}
