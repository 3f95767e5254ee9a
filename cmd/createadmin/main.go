package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"onboarding-service/internal/config"
	"onboarding-service/internal/hashing"
	"onboarding-service/internal/models"
	"onboarding-service/internal/repository/scylla"
	"onboarding-service/internal/util"
)

// createadmin provisions a dashboard account. It talks to Scylla directly so
// it can run before the service itself is up.
func main() {
	email := flag.String("email", "", "admin email address")
	name := flag.String("name", "", "admin display name")
	flag.Parse()

	if *email == "" || *name == "" {
		fmt.Fprintln(os.Stderr, "usage: createadmin -email <email> -name <name>")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)
	defer util.Sync()

	password, err := readPassword()
	if err != nil {
		fmt.Fprintf(os.Stderr, "read password: %v\n", err)
		os.Exit(1)
	}

	client, err := scylla.NewScyllaClient(cfg, util.Get())
	if err != nil {
		fmt.Fprintf(os.Stderr, "scylla: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	hasher := hashing.NewPasswordHasher()
	hash, err := hasher.Hash(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash password: %v\n", err)
		os.Exit(1)
	}

	repo := scylla.NewAdminRepository(client, util.Get())
	admin := &models.AdminUser{
		Email:        strings.ToLower(strings.TrimSpace(*email)),
		Name:         *name,
		PasswordHash: hash,
	}
	if err := repo.Insert(admin); err != nil {
		fmt.Fprintf(os.Stderr, "create admin: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("admin user created: %s (%s)\n", admin.Email, admin.ID)
}

func readPassword() (string, error) {
	fmt.Print("Password: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}

	password := strings.TrimRight(line, "\r\n")
	if len(password) < 8 {
		return "", fmt.Errorf("password must be at least 8 characters")
	}
	return password, nil
}
