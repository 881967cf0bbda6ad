package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/montage-crm/planner/backend/internal/config"
	"github.com/montage-crm/planner/backend/internal/conflict"
	"github.com/montage-crm/planner/backend/internal/domain"
	"github.com/montage-crm/planner/backend/internal/repository"
	"github.com/montage-crm/planner/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var date string

	flag.IntVar(&op, "op", 0, "operation to run (1: insert random installers, 2: insert random bookings for -date)")
	flag.IntVar(&n, "n", 5, "number of installers (op 1) or bookings per installer (op 2)")
	flag.StringVar(&date, "date", time.Now().Format(time.DateOnly), "day to fill with bookings, YYYY-MM-DD")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	switch op {
	case 0:
		slog.Error("no operation given, see -help")
	case 1:
		if n <= 0 {
			slog.Error("number of installers must be positive")
			return
		}
		seedInstallers(repo, cfg, n)
	case 2:
		if n <= 0 {
			slog.Error("number of bookings must be positive")
			return
		}
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			slog.Error("invalid date", slog.String("date", date))
			return
		}
		seedBookings(repo, cfg, date, n)
	default:
		slog.Error("unknown operation", slog.Int("op", op))
	}
}

func seedInstallers(repo *repository.Repository, cfg *config.Config, n int) {
	cnt := 0
	for i := 0; i < n; i++ {
		user, err := utils.GenerateRandomInstaller(cfg.Seed.User.Password, cfg.Email.UserDomain)
		if err != nil {
			slog.Error("failed to generate installer", slog.String("error", err.Error()))
			continue
		}

		if err := repo.CreateUser(user); err != nil {
			slog.Error("failed to insert installer", slog.String("username", user.Username), slog.String("error", err.Error()))
			continue
		}

		cnt++
	}

	slog.Info("inserted installers", slog.Int("count", cnt))
}

// seedBookings gives every active installer up to n bookings on date. Random
// candidates that overlap an already seeded booking are dropped so the
// generated day plans start out clean.
func seedBookings(repo *repository.Repository, cfg *config.Config, date string, n int) {
	admin, err := repo.GetUserByUsername(cfg.InitialAdmin.Username)
	if err != nil {
		slog.Error("failed to load initial admin, start the api once first", slog.String("error", err.Error()))
		return
	}

	installers, err := repo.GetUsersByRole(domain.RoleInstaller)
	if err != nil {
		slog.Error("failed to load installers", slog.String("error", err.Error()))
		return
	}

	policy := cfg.ConflictPolicy()
	inserted, skipped := 0, 0

	for _, installer := range installers {
		if !installer.IsActive {
			continue
		}

		existing, err := repo.GetBookingsByInstallerAndDate(installer.ID, date)
		if err != nil {
			slog.Error("failed to load bookings", slog.Int64("installerID", installer.ID), slog.String("error", err.Error()))
			continue
		}

		for i := 0; i < n; i++ {
			b := utils.GenerateRandomBooking(installer.ID, date, admin.ID)

			conflicts, err := conflict.FindConflicts(*b, existing, policy)
			if err != nil {
				slog.Error("failed to check booking", slog.String("error", err.Error()))
				continue
			}
			if len(conflicts) > 0 {
				skipped++
				continue
			}

			if err := repo.CreateBooking(b, nil); err != nil {
				slog.Error("failed to insert booking", slog.String("error", err.Error()))
				continue
			}

			existing = append(existing, *b)
			inserted++
		}
	}

	slog.Info("inserted bookings", slog.String("date", date), slog.Int("count", inserted), slog.Int("skippedOverlapping", skipped))
}
