package postgres

import "time"

// Config holds PostgreSQL connection settings
type Config struct {
	ConnString     string
	MaxConns       int32
	MinConns       int32
	ConnectTimeout time.Duration
	PingTimeout    time.Duration
}
