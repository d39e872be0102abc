package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/school-records-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "school", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=school sslmode=disable", dsn)
}

func TestDSNQuotesAwkwardValues(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: `it's a \secret`, Name: "school"})
	assert.Equal(t, `host=db port=5432 user=u password='it\'s a \\secret' dbname=school`, dsn)
}

func TestDSNPrefersURL(t *testing.T) {
	url := "postgres://u:p@db:5432/school?sslmode=disable"
	assert.Equal(t, url, DSN(config.DatabaseConfig{URL: url, Host: "ignored"}))
}
