// seed creates the first admin account and, on an empty menu, sample tables, categories and items.
// Idempotent: an existing admin email is left untouched and sample data is only added once.
//
// SEED_ADMIN_EMAIL defaults to admin@example.com. SEED_ADMIN_PASSWORD is read from the environment,
// or prompted for when stdin is a terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/term"

	categorydomain "restaurant-pos/backend/internal/category/domain"
	categoryrepo "restaurant-pos/backend/internal/category/repository"
	"restaurant-pos/backend/internal/config"
	"restaurant-pos/backend/internal/db"
	menudomain "restaurant-pos/backend/internal/menu/domain"
	menurepo "restaurant-pos/backend/internal/menu/repository"
	"restaurant-pos/backend/internal/security"
	tabledomain "restaurant-pos/backend/internal/table/domain"
	tablerepo "restaurant-pos/backend/internal/table/repository"
	userdomain "restaurant-pos/backend/internal/user/domain"
	userrepo "restaurant-pos/backend/internal/user/repository"
)

const defaultAdminEmail = "admin@example.com"

type sampleCategory struct {
	name, description string
	items             []sampleItem
}

type sampleItem struct {
	name, description string
	priceCents        int64
}

var sampleMenu = []sampleCategory{
	{"Starters", "Small plates to share", []sampleItem{
		{"Bruschetta", "Grilled bread, tomato, basil", 650},
		{"Soup of the day", "Ask your server", 550},
	}},
	{"Mains", "", []sampleItem{
		{"Margherita", "Tomato, mozzarella, basil", 1100},
		{"Grilled salmon", "Lemon butter, seasonal vegetables", 1850},
		{"Mushroom risotto", "", 1450},
	}},
	{"Drinks", "", []sampleItem{
		{"Sparkling water", "500 ml", 300},
		{"House red", "Glass", 700},
	}},
}

func main() {
	cfg, err := config.LoadTooling()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	email := userdomain.NormalizeEmail(os.Getenv("SEED_ADMIN_EMAIL"))
	if email == "" {
		email = defaultAdminEmail
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(conn)

	existing, err := users.GetByEmail(ctx, email)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Printf("Admin %s already exists. Skipping account.", email)
	} else {
		password, err := adminPassword()
		if err != nil {
			log.Fatalf("admin password: %v", err)
		}
		if err := createAdmin(ctx, users, security.NewHasher(cfg.BcryptCost), email, password); err != nil {
			log.Fatalf("create admin: %v", err)
		}
		fmt.Printf("Admin login: %s\n", email)
	}

	created, err := seedMenu(ctx, conn)
	if err != nil {
		log.Fatalf("seed menu: %v", err)
	}
	if created {
		log.Println("Sample tables and menu created.")
	} else {
		log.Println("Menu already has categories. Skipping sample data.")
	}
	log.Println("Seed completed successfully.")
}

// adminPassword returns SEED_ADMIN_PASSWORD, or prompts twice on a terminal.
func adminPassword() (string, error) {
	if p := os.Getenv("SEED_ADMIN_PASSWORD"); p != "" {
		return p, security.ValidatePassword(p)
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("SEED_ADMIN_PASSWORD is not set and stdin is not a terminal")
	}
	first, err := prompt(fd, "Admin password: ")
	if err != nil {
		return "", err
	}
	if err := security.ValidatePassword(first); err != nil {
		return "", err
	}
	second, err := prompt(fd, "Repeat password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passwords do not match")
	}
	return first, nil
}

func prompt(fd int, label string) (string, error) {
	w := bufio.NewWriter(os.Stderr)
	_, _ = w.WriteString(label)
	_ = w.Flush()
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

func createAdmin(ctx context.Context, users userrepo.Repository, hasher *security.Hasher, email, password string) error {
	hash, err := hasher.Hash([]byte(password))
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	u := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         "Administrator",
		PasswordHash: hash,
		Role:         userdomain.RoleAdmin,
		Status:       userdomain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.Validate(); err != nil {
		return err
	}
	return users.Create(ctx, u)
}

// seedMenu inserts the sample menu, plus sample tables when there are none, in one transaction.
// Nothing is written when a category already exists.
func seedMenu(ctx context.Context, conn db.DBTX) (bool, error) {
	categories := categoryrepo.NewPostgresRepository(conn)
	existing, err := categories.List(ctx, false)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}

	existingTables, err := tablerepo.NewPostgresRepository(conn).List(ctx, "")
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()
	err = db.WithTx(ctx, conn, func(tx db.DBTX) error {
		tables := tablerepo.NewPostgresRepository(tx)
		for n := 1; n <= 6 && len(existingTables) == 0; n++ {
			capacity := 4
			if n > 4 {
				capacity = 6
			}
			t := &tabledomain.Table{
				ID:        uuid.New().String(),
				Number:    n,
				Name:      fmt.Sprintf("Table %d", n),
				Capacity:  capacity,
				Status:    tabledomain.StatusAvailable,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tables.Create(ctx, t); err != nil {
				return fmt.Errorf("table %d: %w", n, err)
			}
		}

		cats := categoryrepo.NewPostgresRepository(tx)
		items := menurepo.NewPostgresRepository(tx)
		for i, sc := range sampleMenu {
			cat := &categorydomain.Category{
				ID:          uuid.New().String(),
				Name:        sc.name,
				Description: sc.description,
				SortOrder:   i,
				Active:      true,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := cats.Create(ctx, cat); err != nil {
				return fmt.Errorf("category %s: %w", sc.name, err)
			}
			for _, si := range sc.items {
				item := &menudomain.Item{
					ID:          uuid.New().String(),
					CategoryID:  cat.ID,
					Name:        si.name,
					Description: si.description,
					PriceCents:  si.priceCents,
					Available:   true,
					CreatedAt:   now,
					UpdatedAt:   now,
				}
				if err := items.Create(ctx, item); err != nil {
					return fmt.Errorf("item %s: %w", si.name, err)
				}
			}
		}
		return nil
	})
	return err == nil, err
}
