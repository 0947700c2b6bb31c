package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/big"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/campusfound/internal/db"
	"github.com/erazemk/campusfound/internal/model"
	"github.com/erazemk/campusfound/internal/store"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database and the first admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if _, err := os.Stat(cfg.Database.Path); err == nil {
				return fmt.Errorf("database file %s already exists", cfg.Database.Path)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("check database path: %w", err)
			}

			database, password, err := initDatabase(cfg.Database.Path, cfg.Auth.AdminUsername)
			if err != nil {
				return err
			}
			database.Close()

			printInitResult(cmd.OutOrStdout(), cfg.Database.Path, cfg.Auth.AdminUsername, password)
			return nil
		},
	}
}

// initDatabase creates a new database, runs migrations, and creates the admin user.
func initDatabase(path, adminUsername string) (*sql.DB, string, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	fail := func(err error) (*sql.DB, string, error) {
		database.Close()
		os.Remove(path)
		return nil, "", err
	}

	if err := db.Migrate(database); err != nil {
		return fail(fmt.Errorf("migrating schema: %w", err))
	}

	password, err := generatePassword(16)
	if err != nil {
		return fail(fmt.Errorf("generating password: %w", err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fail(fmt.Errorf("hashing password: %w", err))
	}

	ctx := context.Background()
	if _, err := store.CreateUser(ctx, database, adminUsername, "", string(hash), model.RoleAdmin); err != nil {
		return fail(fmt.Errorf("creating admin user: %w", err))
	}

	return database, password, nil
}

// printInitResult prints the database initialization result.
func printInitResult(out io.Writer, dbPath, username, password string) {
	fmt.Fprintf(out, "Database created: %s\n", dbPath)
	fmt.Fprintln(out, "Schema initialized.")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Admin account created:")
	fmt.Fprintf(out, "  Username: %s\n", username)
	fmt.Fprintf(out, "  Password: %s\n", password)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Save this password, it cannot be recovered.")
	fmt.Fprintln(out, "The admin can change it after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
