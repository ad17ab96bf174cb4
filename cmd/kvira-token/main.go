// Команда kvira-token выпускает JWT оператора для /api/v1/admin.
//
//	CONFIG_PATH=./config/local.yaml kvira-token -username kvira_admin
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/magabrotheeeer/kvira-space/internal/config"
	"github.com/magabrotheeeer/kvira-space/internal/lib/jwt"
)

func main() {
	username := flag.String("username", "", "operator name stored in the token")
	role := flag.String("role", jwt.RoleAdmin, "token role")
	flag.Parse()

	if *username == "" {
		fmt.Fprintln(os.Stderr, "-username is required")
		os.Exit(2)
	}

	cfg := config.MustLoad()
	if cfg.JWTSecretKey == "" {
		fmt.Fprintln(os.Stderr, "jwt_secret_key is not configured")
		os.Exit(1)
	}

	token, err := jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL).GenerateToken(*username, *role)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
