package config

import (
	"fmt"
	"log/slog"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"8001"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
	// APIKey guards the HTTP surface when set; empty disables the check
	// (local use).
	APIKey string `envconfig:"API_KEY"`
}

type StoreEnv struct {
	DBPath        string `envconfig:"DB_PATH" default:".questdesk/question_tracker.db"`
	QuestionsFile string `envconfig:"QUESTIONS_FILE" default:"questions.md"`
	WatchSeeds    bool   `envconfig:"WATCH_SEEDS" default:"false"`
}

type PullRequestEnv struct {
	RepoSlug string `envconfig:"PR_REPO_SLUG" default:"questdesk/worktree"`
}

type Env struct {
	BaseEnv
	StoreEnv
	PullRequestEnv
}

const namespace = "QUESTDESK"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}
