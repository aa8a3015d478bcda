/*
Formserver starts a tick server and begins listening for new connections.

Usage:

	formserver [flags]
	formserver [flags] -l [[ADDRESS]:PORT]

Once started, the server listens for HTTP requests and responds using a REST
API: register a Program (a named set of formula definitions), then POST ticks
of named samples to it and read back the computed results.

Configuration is read, in increasing order of precedence, from a TOML config
file (--config), environment variables, and command line flags.

The flags are:

	-v, --version
		Give the current version of the server and then exit.

	-c, --config PATH
		Read configuration from the TOML file at PATH before applying
		environment variable and flag overrides.

	-l, --listen LISTEN_ADDRESS
		Listen on the given address. Must be in BIND_ADDRESS:PORT or :PORT
		format. If not given, will default to the value of environment
		variable EXPRESS_LISTEN_ADDRESS, and if that is not given, will
		default to localhost:8080.

	-s, --secret TOKEN_SECRET
		Use the provided secret for signing JWT tokens. If there are less
		than 32 bytes in the secret, it will be repeated until it is. The
		maximum size is 64 bytes. If not given, will default to the value of
		environment variable EXPRESS_TOKEN_SECRET. If no secret is specified,
		a random secret is generated, which invalidates all tokens at
		shutdown.

	--db DRIVER[:PARAMS]
		Use the given DB connection string. DRIVER must be one of the
		following: inmem, sqlite. inmem has no further params. sqlite needs
		the path to the data directory, e.g. sqlite:path/to/db_dir. If not
		given, will default to the value of environment variable
		EXPRESS_DATABASE. If no DB driver is specified, an in-memory database
		is automatically selected.
*/
package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dekarrin/express/internal/version"
	"github.com/dekarrin/express/server"
	"github.com/spf13/pflag"
)

const (
	EnvListen = "EXPRESS_LISTEN_ADDRESS"
	EnvSecret = "EXPRESS_TOKEN_SECRET"
	EnvDB     = "EXPRESS_DATABASE"
)

var (
	flagVersion = pflag.BoolP("version", "v", false, "Give the current version of the server and then exit.")
	flagConfig  = pflag.StringP("config", "c", "", "Read configuration from the given TOML file.")
	flagListen  = pflag.StringP("listen", "l", "", "Listen on the given address.")
	flagSecret  = pflag.StringP("secret", "s", "", "Use the given secret for token generation.")
	flagDB      = pflag.String("db", "", "Use the given DB connection string.")
)

// fileConfig is the shape of the optional TOML config file; zero values mean
// "not set" and are overridden by environment variables and then flags.
type fileConfig struct {
	Listen            string `toml:"listen"`
	Secret            string `toml:"secret"`
	DB                string `toml:"db"`
	UnauthDelayMillis int    `toml:"unauth_delay_millis"`
}

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s (core v%s)\n", version.ServerCurrent, version.Current)
		return
	}

	if args := pflag.Args(); len(args) > 0 {
		fmt.Fprintf(os.Stderr, "Too many arguments\nDo -h for help.\n")
		os.Exit(1)
	}

	var fc fileConfig
	if *flagConfig != "" {
		if _, err := toml.DecodeFile(*flagConfig, &fc); err != nil {
			fmt.Fprintf(os.Stderr, "could not read config file: %s\n", err)
			os.Exit(1)
		}
	}

	listenAddr := fc.Listen
	if v := os.Getenv(EnvListen); v != "" {
		listenAddr = v
	}
	if pflag.Lookup("listen").Changed {
		listenAddr = *flagListen
	}
	if listenAddr == "" {
		listenAddr = "localhost:8080"
	}

	dbConnStr := fc.DB
	if v := os.Getenv(EnvDB); v != "" {
		dbConnStr = v
	}
	if pflag.Lookup("db").Changed {
		dbConnStr = *flagDB
	}
	if dbConnStr == "" {
		dbConnStr = "inmem"
	}
	db, err := server.ParseDBConnString(dbConnStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\nDo -h for help.\n", err)
		os.Exit(1)
	}

	secretStr := fc.Secret
	if v := os.Getenv(EnvSecret); v != "" {
		secretStr = v
	}
	if pflag.Lookup("secret").Changed {
		secretStr = *flagSecret
	}

	var tokSecret []byte
	if secretStr != "" {
		tokSecret = []byte(secretStr)
		for len(tokSecret) < server.MinSecretSize {
			doubled := make([]byte, len(tokSecret)*2)
			copy(doubled, tokSecret)
			copy(doubled[len(tokSecret):], tokSecret)
			tokSecret = doubled
		}
		if len(tokSecret) > server.MaxSecretSize {
			tokSecret = tokSecret[:server.MaxSecretSize]
		}
	} else {
		tokSecret = make([]byte, server.MaxSecretSize)
		if _, err := rand.Read(tokSecret); err != nil {
			fmt.Fprintf(os.Stderr, "could not generate token secret: %s\n", err)
			os.Exit(1)
		}
		log.Printf("WARN  Using generated token secret; all tokens issued will become invalid at shutdown")
	}

	cfg := server.Config{
		TokenSecret:       tokSecret,
		DB:                db,
		UnauthDelayMillis: fc.UnauthDelayMillis,
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("FATAL could not start server: %s", err)
	}
	defer srv.Close()
	log.Printf("DEBUG Server initialized")

	if err := srv.CreateInitialAdmin(context.Background(), "admin", "password"); err != nil {
		log.Printf("ERROR could not create initial admin user: %v", err)
		os.Exit(2)
	}

	bindAddr := listenAddr
	if strings.HasPrefix(bindAddr, ":") {
		if _, convErr := strconv.Atoi(bindAddr[1:]); convErr != nil {
			fmt.Fprintf(os.Stderr, "Listen address is not in ADDRESS:PORT or :PORT format.\nDo -h for help.\n")
			os.Exit(1)
		}
	}

	log.Printf("INFO  Starting server %s on %s...", version.ServerCurrent, bindAddr)
	if err := srv.ServeForever(bindAddr); err != nil {
		log.Fatalf("FATAL server exited: %s", err)
	}
}
