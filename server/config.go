package server

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config holds HTTP server configuration. Timeouts are in seconds.
type Config struct {
	Host         string `mapstructure:"host" json:"host"`
	Port         int    `mapstructure:"port" json:"port" validate:"min=1,max=65535"`
	ReadTimeout  int    `mapstructure:"read_timeout" json:"read_timeout" validate:"min=0"`
	WriteTimeout int    `mapstructure:"write_timeout" json:"write_timeout" validate:"min=0"`
	IdleTimeout  int    `mapstructure:"idle_timeout" json:"idle_timeout" validate:"min=0"`
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// String implements fmt.Stringer for the startup summary.
func (c Config) String() string {
	return fmt.Sprintf("%s (read=%s write=%s idle=%s)", c.Addr(),
		seconds(c.ReadTimeout), seconds(c.WriteTimeout), seconds(c.IdleTimeout))
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }
