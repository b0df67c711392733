// Command adduser registers an account against the configured backend. There
// is no self-service signup; accounts are provisioned from the command line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"spendtrack/internal/auth"
	"spendtrack/internal/backend"
	"spendtrack/internal/config"
	applog "spendtrack/internal/log"
	"spendtrack/internal/store"
)

func main() {
	_ = godotenv.Load()

	email := flag.String("email", "", "email address for the new account")
	flag.Parse()

	if strings.TrimSpace(*email) == "" {
		fmt.Fprintln(os.Stderr, "usage: adduser -email user@example.com")
		os.Exit(2)
	}

	if err := run(*email); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(email string) error {
	password, err := promptPassword()
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}

	logger := applog.New(applog.Config{Level: applog.DefaultConfig().Level, Component: applog.ComponentApp})

	ctx := context.Background()
	result, err := backend.NewFactory(logger).CreateStore(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer func() { _ = result.Cleanup() }()

	user, err := result.Store.CreateUser(ctx, email, hash)
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return fmt.Errorf("an account with email %q already exists", email)
		}
		return err
	}

	fmt.Printf("created user %s (%s)\n", user.Email, user.ID)
	return nil
}

func promptPassword() (string, error) {
	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Print("Confirm password: ")
	confirm, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password confirmation: %w", err)
	}

	if string(password) != string(confirm) {
		return "", errors.New("passwords do not match")
	}
	return string(password), nil
}
