package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"alightgram/config"
	database "alightgram/db"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	root := &cli.Command{
		Name:  "alightgram",
		Usage: "Social graph, content visibility and realtime gateway for AlightGram",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runServe(ctx)
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		logrus.WithError(err).Fatal("alightgram exited")
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the gRPC API, the HTTP gateway and the background workers",
		Action: func(ctx context.Context, c *cli.Command) error {
			return runServe(ctx)
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply the Postgres schema migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-prefix", Value: "", Usage: "prefix of the DB_* variables"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := config.NewLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

			conn, err := connectDatabase(ctx, c.String("env-prefix"))
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := database.RunMigrations(ctx, conn); err != nil {
				return err
			}
			logger.Info("Migrations applied")
			return nil
		},
	}
}

func connectDatabase(ctx context.Context, prefix string) (*database.Connection, error) {
	dbConfig, err := config.LoadDatabaseConfig(prefix)
	if err != nil {
		return nil, err
	}

	conn, err := database.NewConnection(database.Config{
		Host:         dbConfig.Host,
		Port:         dbConfig.Port,
		User:         dbConfig.User,
		Password:     dbConfig.Password,
		DBName:       dbConfig.DBName,
		SSLMode:      dbConfig.SSLMode,
		MaxOpenConns: dbConfig.MaxOpenConns,
		MaxIdleConns: dbConfig.MaxIdleConns,
		MaxLifetime:  dbConfig.MaxLifetime,
	})
	if err != nil {
		return nil, err
	}

	hctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.HealthCheck(hctx); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
