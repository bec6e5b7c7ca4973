package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Shradha102005/KhetBox/internal/config"
)

func TestNewPostgresDB_Unreachable(t *testing.T) {
	cfg := &config.DatabaseConfig{Host: "127.0.0.1", Port: 1, User: "postgres", Database: "khetbox", SSLMode: "disable", MaxConns: 2, MaxIdle: 1}

	db, err := NewPostgresDB(cfg, time.Second)
	assert.Error(t, err)
	assert.Nil(t, db)
}

func TestClose_Nil(t *testing.T) {
	assert.NoError(t, Close(nil))
}
