// Command token mints a coordinator access token signed with JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/adapter/middleware"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/config"
)

func main() {
	subject := flag.String("sub", "", "coordinator id recorded as the actor")
	role := flag.String("role", middleware.RoleCoordinator, "coordinator or admin")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.Load()
	if cfg.JWTSecret == "" || *subject == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET and -sub are required")
		os.Exit(2)
	}
	tok, err := middleware.NewTokenVerifier(cfg.JWTSecret, cfg.JWTIssuer).Issue(*subject, *role, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
