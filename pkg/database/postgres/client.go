package pg

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/external"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/rdsutils"
	"github.com/pkg/errors"

	_ "github.com/newrelic/go-agent/v3/integrations/nrpgx"
)

// Config describes how to reach the ledger database.
type Config struct {
	User     string
	Host     string
	Password string
	Port     int
	DbName   string

	// UseAwsIam authenticates with an RDS IAM token instead of Password.
	UseAwsIam bool

	MaxOpenConnections int
	MaxIdleConnections int
}

// Open returns a DB connection pool for the provided config.
func Open(cfg *Config) (*sql.DB, error) {
	port := strconv.Itoa(cfg.Port)

	var db *sql.DB
	var err error
	if cfg.UseAwsIam {
		awsConfig, err := external.LoadDefaultAWSConfig()
		if err != nil {
			return nil, errors.Wrap(err, "error loading aws config")
		}

		db, err = NewWithAwsIam(cfg.User, cfg.Host, port, cfg.DbName, awsConfig)
		if err != nil {
			return nil, err
		}
	} else {
		db, err = NewWithUsernameAndPassword(cfg.User, cfg.Password, cfg.Host, port, cfg.DbName)
		if err != nil {
			return nil, err
		}
	}

	if cfg.MaxOpenConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConnections)
	}
	if cfg.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConnections)
	}

	return db, nil
}

// Get a DB connection pool using AWS IAM credentials
//
// https://docs.aws.amazon.com/AmazonRDS/latest/AuroraUserGuide/UsingWithRDS.IAMDBAuth.Connecting.Go.html
func NewWithAwsIam(username, hostname, port, dbname string, config aws.Config) (*sql.DB, error) {
	// Only supported on provisioned Aurora RDS clusters
	rdsClient := rds.New(config)

	endpoint := fmt.Sprintf("%s:%s", hostname, port)
	authToken, err := rdsutils.BuildAuthToken(endpoint, rdsClient.Region, username, rdsClient.Credentials)
	if err != nil {
		return nil, errors.Wrap(err, "error building rds auth token")
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s",
		hostname, port, username, authToken, dbname,
	)
	return open(dsn)
}

// Get a DB connection pool using username/password credentials
func NewWithUsernameAndPassword(username, password, hostname, port, dbname string) (*sql.DB, error) {
	// TODO: enable SSL once the ledger database cert is distributed with the binary
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		username, password, hostname, port, dbname,
	)
	return open(dsn)
}

func open(dsn string) (*sql.DB, error) {
	// The New Relic wrapped pgx driver
	db, err := sql.Open("nrpgx", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "error pinging database")
	}

	return db, nil
}
