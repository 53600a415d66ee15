package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resto/internal/config"
	"resto/internal/models"
	"resto/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SQLiteDSN turns a database file path into a DSN with foreign keys enforced and
// write transactions started with BEGIN IMMEDIATE.
func SQLiteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_txlock=immediate&_busy_timeout=5000"
}

// Dialector picks the GORM dialector for the configured driver.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return sqlite.Open(SQLiteDSN(cfg.DBPath)), nil
	case "postgres":
		return postgres.Open(cfg.DatabaseDSN), nil
	default:
		return nil, fmt.Errorf("driver %q has no SQL dialector", cfg.DBDriver)
	}
}

// Open connects through dialector and migrates the schema.
func Open(dialector gorm.Dialector, log logrus.FieldLogger) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.WithField("dialect", dialector.Name()).Info("Database connected and migrated successfully")
	return db, nil
}

// Migrate creates or updates the five tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Dish{},
		&models.User{},
		&models.Merchant{},
		&models.Session{},
		&models.Order{},
		&models.OrderItem{},
	)
}

// StarterMenu is the menu a fresh deployment opens with.
func StarterMenu() []models.Dish {
	dish := func(name, category, description, price string) models.Dish {
		return models.Dish{
			Name:        name,
			Category:    category,
			Description: description,
			Price:       decimal.RequireFromString(price),
			IsAvailable: true,
		}
	}
	return []models.Dish{
		dish("Margherita Pizza", "Pizza", "Tomato, mozzarella and basil", "8.5"),
		dish("Caesar Salad", "Salad", "Romaine, parmesan, croutons", "6.0"),
		dish("Spaghetti Bolognese", "Pasta", "Slow-cooked beef ragu", "9.5"),
		dish("Cheeseburger", "Burger", "Beef patty with cheddar", "7.5"),
		dish("Chicken Caesar Salad", "Salad", "Caesar salad with grilled chicken", "8.0"),
		dish("Vegetable Stir Fry", "Wok", "Seasonal vegetables, soy glaze", "6.5"),
		dish("Fish and Chips", "Mains", "Battered cod with fries", "10.0"),
		dish("Pizza Margherita", "Pizza", "Thin crust, fresh basil", "8.5"),
		dish("Garden Salad", "Salad", "Mixed greens, vinaigrette", "6.0"),
		dish("Lasagne", "Pasta", "Layered pasta with ragu and bechamel", "9.5"),
	}
}

// SeedMenu fills an empty dishes table with StarterMenu. It reports how many dishes it added.
func SeedMenu(ctx context.Context, dishes repositories.DishRepository) (int, error) {
	n, err := dishes.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	menu := StarterMenu()
	for i := range menu {
		if err := dishes.Create(ctx, &menu[i]); err != nil {
			return i, fmt.Errorf("seed dish %s: %w", menu[i].Name, err)
		}
	}
	return len(menu), nil
}
