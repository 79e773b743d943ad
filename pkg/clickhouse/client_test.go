package clickhouse

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	cfg := ClientConfig{
		Host:         "ch.local",
		Port:         9000,
		Database:     "golf",
		User:         "svc",
		Password:     "p@ss",
		DialTimeout:  5 * time.Second,
		MaxExecTime:  30 * time.Second,
		AsyncInsert:  true,
		WaitForAsync: true,
	}
	u, err := url.Parse(BuildDSN(cfg))
	require.NoError(t, err)
	assert.Equal(t, "clickhouse", u.Scheme)
	assert.Equal(t, "ch.local:9000", u.Host)
	assert.Equal(t, "/golf", u.Path)
	pw, _ := u.User.Password()
	assert.Equal(t, "svc", u.User.Username())
	assert.Equal(t, "p@ss", pw)

	q := u.Query()
	assert.Equal(t, "5s", q.Get("dial_timeout"))
	assert.Equal(t, "30", q.Get("max_execution_time"))
	assert.Equal(t, "1", q.Get("async_insert"))
	assert.Equal(t, "1", q.Get("wait_for_async_insert"))
	assert.Empty(t, q.Get("read_timeout"))
}

func TestBuildDSNHTTPWithoutUser(t *testing.T) {
	u, err := url.Parse(BuildDSN(ClientConfig{Host: "ch", Port: 8123, Database: "default", UseHTTP: true}))
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Nil(t, u.User)
	assert.Empty(t, u.RawQuery)
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient(WithDatabase("golf"))
	assert.Error(t, err)
}
