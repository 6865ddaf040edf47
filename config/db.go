package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"hotel-rooming/models"
	"hotel-rooming/utils"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	user := u.User.Username()
	pass, _ := u.User.Password()
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql url missing database name")
	}

	q := u.Query()
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "True")
	}
	if q.Get("loc") == "" {
		q.Set("loc", "Local")
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, dbName, q.Encode()), nil
}

// resolveMySQLDSN prefers DATABASE_URL (mysql:// URL or raw DSN), then the DB_* variables.
func resolveMySQLDSN(s Settings) (string, error) {
	if raw := strings.TrimSpace(s.DatabaseURL); raw != "" {
		if strings.HasPrefix(raw, "mysql://") {
			return mysqlDSNFromURL(raw)
		}
		return raw, nil
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		s.DBUser, s.DBPass, s.DBHost, s.DBPort, s.DBName,
	), nil
}

func openDialector(s Settings) (gorm.Dialector, error) {
	switch strings.ToLower(s.DBDriver) {
	case "", "mysql":
		dsn, err := resolveMySQLDSN(s)
		if err != nil {
			return nil, err
		}
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(s.SQLitePath), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", s.DBDriver)
	}
}

// ConnectDatabase opens the configured database, migrates the rooming tables and sets DB.
func ConnectDatabase(s Settings) error {
	dialector, err := openDialector(s)
	if err != nil {
		return err
	}

	level := logger.Warn
	if utils.EnvBool("DB_DEBUG", false) {
		level = logger.Info
	}
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      level,
			Colorful:      true,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: newLogger, TranslateError: true})
	if err != nil {
		return err
	}

	if err := Migrate(db); err != nil {
		return err
	}
	DB = db
	return nil
}

// Migrate creates or updates the tables the rooming engine reads and writes.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Program{},
		&models.Booking{},
		&models.RoomLayout{},
	)
}
