package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/stake-plus/multisig-comms/src/actions"
	shareddata "github.com/stake-plus/multisig-comms/src/data"
	"gorm.io/gorm"
)

func main() {
	// MySQL is optional: it backs the settings table and the mysql call store.
	var db *gorm.DB
	if dsn := shareddata.GetMySQLDSN(); dsn != "" {
		conn, err := shareddata.ConnectMySQL(dsn)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		db = conn
	} else {
		log.Printf("db: MYSQL_DSN not set, using environment configuration only")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager, err := actions.StartAll(ctx, db)
	if err != nil {
		log.Fatalf("actions start: %v", err)
	}

	// Wait for termination
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	cancel()
	manager.Stop(context.Background())
}
