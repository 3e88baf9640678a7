package httpapi

import (
	"context"
	"database/sql"

	"applicant-engine/internal/config"
	"applicant-engine/internal/events"
	"applicant-engine/internal/parser"
	"applicant-engine/internal/pipeline"
)

// Runner is the slice of *pipeline.Runner the API drives.
type Runner interface {
	Run(ctx context.Context) (pipeline.Result, error)
	Status() pipeline.Status
}

type Deps struct {
	DB  *sql.DB
	Hub *events.Hub

	Runner Runner
	// Parser configures offline parsing for POST /parse.
	Parser parser.Options

	// Config returns the live config.
	Config func() config.Config

	// RunContext is the parent context of passes started over HTTP.
	RunContext func() context.Context
}
