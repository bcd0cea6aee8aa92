package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"newsauth/internal/domain"
	impl "newsauth/internal/service/impl"
	"newsauth/internal/store"
	"newsauth/pkg/db"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "create":
		err = runCreate(args)
	case "set-status":
		err = runSetStatus(args)
	default:
		usage()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  create      Create an admin account")
	fmt.Fprintln(os.Stderr, "  set-status  Activate or suspend an admin account")
	os.Exit(2)
}

func openStore() (*store.Store, error) {
	_ = godotenv.Load()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	gdb, err := db.OpenGorm(db.Config{DSN: dsn})
	if err != nil {
		return nil, err
	}
	if err := gdb.AutoMigrate(&domain.Admin{}, &domain.Session{}); err != nil {
		return nil, err
	}
	return store.New(gdb), nil
}

func runCreate(args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	email := fs.String("email", "", "admin email (required)")
	username := fs.String("username", "", "admin username (required)")
	password := fs.String("password", "", "initial password (required, min 8 chars)")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	phone := fs.String("phone", "", "phone number")
	role := fs.String("role", "editor", "admin role")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *username == "" || *password == "" {
		return fmt.Errorf("-email, -username and -password are required")
	}

	st, err := openStore()
	if err != nil {
		return err
	}

	hash, err := impl.NewPasswordServiceBcrypt().Hash(*password)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	admin := &domain.Admin{
		AdminID:      uuid.New(),
		FirstName:    *first,
		LastName:     *last,
		Email:        *email,
		Phone:        *phone,
		Username:     *username,
		Role:         *role,
		Permissions:  []string{},
		PasswordHash: hash,
		Status:       domain.AdminStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := st.Admins().Create(context.Background(), admin); err != nil {
		return err
	}

	fmt.Printf("created admin %s (%s)\n", admin.AdminID, admin.Email)
	return nil
}

func runSetStatus(args []string) error {
	fs := flag.NewFlagSet("set-status", flag.ExitOnError)
	id := fs.String("id", "", "admin id (required)")
	status := fs.String("status", "", "active or suspended (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	adminID, err := uuid.Parse(*id)
	if err != nil {
		return fmt.Errorf("invalid admin id: %w", err)
	}
	if *status != domain.AdminStatusActive && *status != domain.AdminStatusSuspended {
		return fmt.Errorf("status must be %q or %q", domain.AdminStatusActive, domain.AdminStatusSuspended)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	if err := st.Admins().SetStatus(context.Background(), adminID, *status); err != nil {
		return err
	}

	fmt.Printf("admin %s status set to %s\n", adminID, *status)
	return nil
}
