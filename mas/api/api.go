// Subset catalogue API
// Copyright (c) 2017, NCI, Australian National University.

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/nci/rsproduct/mas"
)

var (
	dbName   = flag.String("database", "mas", "database name")
	dbUser   = flag.String("user", "api", "database user name")
	dbHost   = flag.String("host", "/var/run/postgresql", "database host or socket directory")
	dbPool   = flag.Int("pool", 8, "database pool size")
	dbLimit  = flag.Int("limit", 64, "database concurrent requests")
	httpPort = flag.Int("port", 8080, "http port")
	mcURI    = flag.String("memcache", "", "memcache uri host:port")
	initDB   = flag.Bool("init", false, "create the catalogue table before serving")
)

func main() {
	flag.Parse()

	log.Infof("dbUser %s dbName %s dbPool %d httpPort %d", *dbUser, *dbName, *dbPool, *httpPort)

	dbinfo := fmt.Sprintf("user=%s host=%s dbname=%s sslmode=disable", *dbUser, *dbHost, *dbName)
	catalogue, err := mas.Open(dbinfo, *mcURI)
	if err != nil {
		log.Fatal(err)
	}
	defer catalogue.Close()
	catalogue.SetPoolLimits(*dbPool, *dbLimit)

	if *initDB {
		if err := catalogue.Init(context.Background()); err != nil {
			log.Fatal(err)
		}
	}

	http.Handle("/", mas.NewHandler(catalogue))
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", *httpPort), nil))
}
