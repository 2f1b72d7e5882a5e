package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/certiva/certiva-backend/internal/config"
	"github.com/certiva/certiva-backend/internal/database"
	"github.com/certiva/certiva-backend/internal/logger"
	"github.com/certiva/certiva-backend/internal/model"
	"github.com/certiva/certiva-backend/internal/repository"
	"github.com/certiva/certiva-backend/internal/service"
)

// seed-exams loads exam definitions from a JSON file and creates them
// through the catalog service, optionally publishing them immediately.
func main() {
	var (
		file    string
		publish bool
	)
	flag.StringVar(&file, "file", "seed/exams.json", "Path to exam definitions JSON")
	flag.BoolVar(&publish, "publish", false, "Publish exams after creating them")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	examRepo := repository.NewExamRepository(pool)
	catalog := service.NewCatalogService(examRepo, rdb, log)

	data, err := os.ReadFile(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Failed to read seed file")
	}

	var requests []model.CreateExamRequest
	if err := json.Unmarshal(data, &requests); err != nil {
		log.Fatal().Err(err).Msg("Failed to parse seed file")
	}

	fmt.Printf("=== Seeding %d Exams ===\n", len(requests))

	for i := range requests {
		exam, err := catalog.Create(ctx, &requests[i])
		if err != nil {
			log.Fatal().Err(err).Str("title", requests[i].Title).Msg("Failed to create exam")
		}
		fmt.Printf("Created %s (%s)\n", exam.Title, exam.ID)

		if publish {
			if _, err := catalog.Publish(ctx, exam.ID); err != nil {
				log.Fatal().Err(err).Str("title", exam.Title).Msg("Failed to publish exam")
			}
			fmt.Printf("Published %s\n", exam.Title)
		}
	}

	fmt.Println("Done")
}
