package pg

import (
	"testing"

	"github.com/itchan-dev/msgboard/shared/config"
	"github.com/stretchr/testify/assert"
)

func TestConnString(t *testing.T) {
	cfg := config.Pg{Host: "db", Port: 5433, User: "board", Password: "pw", Dbname: "msgboard"}
	assert.Equal(t, "host=db port=5433 user=board password=pw dbname=msgboard sslmode=disable", ConnString(cfg))
}

func TestDefaultConnectionConfig(t *testing.T) {
	c := DefaultConnectionConfig()
	assert.Greater(t, c.MaxOpenConns, 0)
	assert.LessOrEqual(t, c.MaxIdleConns, c.MaxOpenConns)
}
